package ingest

import "github.com/techbeetle/news-router/internal/domain"

// Dedupe drops later copies of the same story, keeping the first occurrence and input order.
func Dedupe(articles []domain.Article) []domain.Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		key := domain.DedupeKey(a)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
