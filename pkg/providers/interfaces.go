package providers

import (
	"context"

	"github.com/techbeetle/news-router/internal/domain"
	"github.com/techbeetle/news-router/pkg/httpclient"
)

// Query describes what the aggregator wants from a single provider call.
type Query struct {
	Country string
	Limit   int
	// Search is an optional free-text filter applied on top of the technology topic.
	Search string
}

// Fetcher retrieves and normalizes articles for one provider.
// Implementations never fail outward: problems come back as an Unavailable result.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider, q Query) Result
}

// FetcherRegistry resolves the fetcher implementation for a given provider config.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within providers.
type HTTPClient = httpclient.Client

// Status tags a Result variant.
type Status string

const (
	StatusOK          Status = "ok"
	StatusUnavailable Status = "unavailable"
)

// Result is either Ok(articles) or Unavailable(reason).
type Result struct {
	Provider string
	Status   Status
	Articles []domain.Article
	Reason   string
}

// Ok builds a successful result. A provider returning zero articles is still Ok.
func Ok(provider string, articles []domain.Article) Result {
	return Result{Provider: provider, Status: StatusOK, Articles: articles}
}

// Unavailable builds a result for a provider that could not contribute.
func Unavailable(provider, reason string) Result {
	return Result{Provider: provider, Status: StatusUnavailable, Reason: reason}
}

// Available reports whether the provider answered.
func (r Result) Available() bool {
	return r.Status == StatusOK
}
