package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/techbeetle/news-router/internal/domain"
)

const rssMaxItems = 50

// rssFetcher reads a plain RSS/Atom feed declared in the providers file.
type rssFetcher struct {
	client HTTPClient
	parser *gofeed.Parser
}

// NewRSSFetcher builds a feed adapter. Feeds need no key; base_url is the feed URL.
func NewRSSFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &rssFetcher{client: client, parser: gofeed.NewParser()}
}

func (f *rssFetcher) ID() string { return TypeRSS }

func (f *rssFetcher) Fetch(ctx context.Context, cfg Provider, q Query) Result {
	articles, err := f.fetch(ctx, cfg, q)
	return resultFrom(cfg.ID, articles, err)
}

func (f *rssFetcher) fetch(ctx context.Context, cfg Provider, q Query) ([]domain.Article, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider %q base_url is empty", cfg.ID)
	}

	body, err := fetchBody(ctx, f.client, cfg.BaseURL, cfg.ID, Headers(cfg))
	if err != nil {
		return nil, err
	}
	feed, err := f.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("decode %s feed: %w", cfg.ID, err)
	}

	limit := pageSize(cfg, q.Limit, rssMaxItems)
	search := strings.ToLower(strings.TrimSpace(q.Search))
	source := firstNonEmpty(cfg.Name, feed.Title, cfg.ID)

	out := make([]domain.Article, 0, limit)
	for _, item := range feed.Items {
		if len(out) >= limit {
			break
		}
		if item == nil {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(item.Title+" "+item.Description), search) {
			continue
		}

		published := item.Published
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC().Format(time.RFC3339)
		}
		a := domain.Article{
			ID:            firstNonEmpty(item.Link, item.GUID),
			Title:         strings.TrimSpace(item.Title),
			Summary:       plainText(item.Description),
			URL:           strings.TrimSpace(item.Link),
			ImageURL:      feedImage(item),
			PublishedAt:   normalizeTimestamp(published),
			Source:        source,
			SourceCountry: ConfigString(cfg, "country", q.Country),
			Provider:      cfg.ID,
			RawContent:    plainText(item.Content),
		}
		if keep(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func feedImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}
