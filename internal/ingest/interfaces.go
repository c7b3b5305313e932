package ingest

import (
	"context"

	"github.com/techbeetle/news-router/internal/domain"
	"github.com/techbeetle/news-router/pkg/publishers"
)

// Collector gathers raw articles for one request.
type Collector interface {
	Collect(ctx context.Context, country string, target int, search string) ([]domain.Article, Report)
}

// ImageEnricher fills in cover images for articles that arrived without one.
type ImageEnricher interface {
	Enrich(ctx context.Context, articles []domain.Article) []domain.Article
}

// ArticleStore persists a rewritten batch. Implementations never fail the request.
type ArticleStore interface {
	Persist(ctx context.Context, batch Batch) PersistStats
}

// EventPublisher publishes persisted articles downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}
