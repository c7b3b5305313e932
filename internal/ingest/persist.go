package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/techbeetle/news-router/internal/content"
	"github.com/techbeetle/news-router/internal/domain"
	"github.com/techbeetle/news-router/internal/logger"
	"github.com/techbeetle/news-router/pkg/publishers"
)

const (
	genericCategorySlug = "technology"
	genericCategoryName = "Technology"
	contentTypeNews     = "news"
	contentStatusLive   = "published"
)

// Batch is one pipeline run's rewritten output plus its provenance.
type Batch struct {
	RunID     string
	Country   string
	Query     string
	Fetched   int
	Articles  []domain.Article
	Report    Report
	StartedAt time.Time
}

// PersistStats reports what a Persist call managed to write.
type PersistStats struct {
	Saved              int  `json:"saved"`
	Failed             int  `json:"failed"`
	Skipped            bool `json:"skipped"`
	SideEffectFailures int  `json:"side_effect_failures"`
}

// PersisterOptions configures a Persister.
type PersisterOptions struct {
	Repository content.Repository
	Events     EventPublisher
	AuthorID   string
	Log        logger.Logger
	Now        func() time.Time
}

// Persister writes rewritten articles to the content store, best-effort.
type Persister struct {
	repo     content.Repository
	events   EventPublisher
	authorID string
	log      logger.Logger
	now      func() time.Time
}

// NewPersister builds a persister; a nil repository or empty author turns Persist into a logged no-op.
func NewPersister(opts PersisterOptions) *Persister {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Persister{
		repo:     opts.Repository,
		events:   opts.Events,
		authorID: strings.TrimSpace(opts.AuthorID),
		log:      logger.Ensure(opts.Log),
		now:      now,
	}
}

// Persist upserts each article by slug and runs the follow-up writes. It never returns an error.
func (p *Persister) Persist(ctx context.Context, batch Batch) PersistStats {
	var stats PersistStats
	if p == nil {
		stats.Skipped = true
		return stats
	}
	if p.repo == nil {
		stats.Skipped = true
		p.log.DebugObj("persistence skipped", "persist_skipped", p.skipScope(batch, "content repository not configured"))
		return stats
	}
	if p.authorID == "" {
		stats.Skipped = true
		p.log.WarnObj("persistence skipped", "persist_skipped", p.skipScope(batch, "default author id not configured"))
		return stats
	}

	categories := map[string]string{}
	for _, a := range batch.Articles {
		p.persistOne(ctx, batch, a, categories, &stats)
	}

	stats.SideEffectFailures += runSideEffects(ctx, p.log, map[string]any{"run_id": batch.RunID}, sideEffect{
		name: "ingestion_log",
		run: func(ctx context.Context) error {
			return p.repo.LogIngestion(ctx, p.ingestionEntry(batch, stats))
		},
	})

	p.log.InfoObj("persistence completed", "persist_result", map[string]any{
		"run_id":  batch.RunID,
		"country": batch.Country,
		"stats":   stats,
	})
	return stats
}

func (p *Persister) skipScope(batch Batch, reason string) map[string]any {
	return map[string]any{"run_id": batch.RunID, "country": batch.Country, "reason": reason}
}

func (p *Persister) persistOne(ctx context.Context, batch Batch, a domain.Article, categories map[string]string, stats *PersistStats) {
	item := p.contentItem(a, batch.Country, p.categoryID(ctx, batch.Country, categories))
	if err := p.repo.UpsertContent(ctx, item); err != nil {
		stats.Failed++
		p.log.ErrorObj("content upsert failed", "persist_error", map[string]any{
			"run_id": batch.RunID,
			"slug":   a.Slug,
			"error":  err.Error(),
		})
		return
	}
	stats.Saved++

	effects := []sideEffect{{
		name: "source_meta",
		run: func(ctx context.Context) error {
			return p.repo.UpsertSource(ctx, &content.ContentSource{
				ContentSlug:   a.Slug,
				SourceName:    a.Source,
				SourceURL:     a.URL,
				SourceCountry: a.SourceCountry,
				Provider:      a.Provider,
				OriginalID:    a.ID,
				FetchedAt:     p.now().UTC(),
			})
		},
	}}
	if p.events != nil {
		effects = append(effects, sideEffect{
			name: "publish_event",
			run: func(ctx context.Context) error {
				_, err := p.events.Publish(ctx, publishers.NewEvent(batch.RunID, batch.Country, a, p.now()))
				return err
			},
		})
	}
	stats.SideEffectFailures += runSideEffects(ctx, p.log, map[string]any{"run_id": batch.RunID, "slug": a.Slug}, effects...)
}

// categoryID resolves technology-<cc>, falling back to the generic category. Results are memoized per batch.
func (p *Persister) categoryID(ctx context.Context, country string, memo map[string]string) string {
	country = strings.ToLower(strings.TrimSpace(country))
	if id, ok := memo[country]; ok {
		return id
	}

	id := ""
	if country != "" {
		cat, err := p.repo.EnsureCategory(ctx, genericCategorySlug+"-"+country, fmt.Sprintf("%s (%s)", genericCategoryName, strings.ToUpper(country)))
		if err == nil {
			id = cat.ID
		} else {
			p.log.WarnObj("country category unavailable, using generic", "category_fallback", map[string]any{
				"country": country,
				"error":   err.Error(),
			})
		}
	}
	if id == "" {
		if cat, err := p.repo.EnsureCategory(ctx, genericCategorySlug, genericCategoryName); err == nil {
			id = cat.ID
		} else {
			p.log.ErrorObj("generic category unavailable", "category_error", map[string]any{"error": err.Error()})
		}
	}

	memo[country] = id
	return id
}

func (p *Persister) contentItem(a domain.Article, country, categoryID string) *content.ContentItem {
	item := &content.ContentItem{
		Slug:           a.Slug,
		Title:          a.Title,
		Excerpt:        a.Summary,
		Body:           a.Content,
		BodyHTML:       a.ContentHTML,
		SEOTitle:       a.SEOTitle,
		SEODescription: a.SEODescription,
		CoverImageURL:  a.ImageURL,
		Takeaways:      a.Takeaways,
		Country:        country,
		AuthorID:       p.authorID,
		CategoryID:     categoryID,
		Type:           contentTypeNews,
		Status:         contentStatusLive,
	}
	if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
		ts := t.UTC()
		item.PublishedAt = &ts
	}
	return item
}

func (p *Persister) ingestionEntry(batch Batch, stats PersistStats) *content.IngestionLog {
	started := batch.StartedAt
	if started.IsZero() {
		started = p.now()
	}
	return &content.IngestionLog{
		ID:          batch.RunID,
		Country:     batch.Country,
		Query:       batch.Query,
		Fetched:     batch.Fetched,
		Returned:    len(batch.Articles),
		Saved:       stats.Saved,
		Failed:      stats.Failed,
		Degraded:    batch.Report.Degraded,
		Providers:   batch.Report.Providers(),
		StartedAt:   started.UTC(),
		CompletedAt: p.now().UTC(),
	}
}
