// Package ingest turns provider output into rewritten, cached and persisted articles.
package ingest

import (
	"context"
	"fmt"

	"github.com/techbeetle/news-router/internal/domain"
	"github.com/techbeetle/news-router/internal/logger"
	"github.com/techbeetle/news-router/pkg/providers"
)

// ProviderOutcome is one provider's contribution to a run.
type ProviderOutcome struct {
	Provider string           `json:"provider"`
	Status   providers.Status `json:"status"`
	Count    int              `json:"count"`
	Reason   string           `json:"reason,omitempty"`
}

// Report summarizes an aggregation pass.
type Report struct {
	Outcomes []ProviderOutcome `json:"outcomes"`
	Degraded int               `json:"degraded"`
}

// Providers lists the ids that were queried, in order.
func (r Report) Providers() []string {
	out := make([]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		out = append(out, o.Provider)
	}
	return out
}

// Aggregator queries providers in priority order until enough articles are collected.
type Aggregator struct {
	registry  providers.FetcherRegistry
	providers []providers.Provider
	log       logger.Logger
}

// NewAggregator wires the fetcher registry with the ordered, enabled provider list.
func NewAggregator(reg providers.FetcherRegistry, list []providers.Provider, log logger.Logger) *Aggregator {
	cp := make([]providers.Provider, len(list))
	copy(cp, list)
	return &Aggregator{registry: reg, providers: cp, log: logger.Ensure(log)}
}

// Collect calls providers one at a time and stops once target articles are in hand.
// A failing provider contributes nothing and never aborts the pass.
func (a *Aggregator) Collect(ctx context.Context, country string, target int, search string) ([]domain.Article, Report) {
	collected := make([]domain.Article, 0, target)
	var report Report

	for _, cfg := range a.providers {
		if len(collected) >= target {
			break
		}

		// Every provider is asked for the full target so dedupe has headroom.
		res := a.fetch(ctx, cfg, providers.Query{Country: country, Limit: target, Search: search})

		outcome := ProviderOutcome{Provider: cfg.ID, Status: res.Status, Count: len(res.Articles), Reason: res.Reason}
		report.Outcomes = append(report.Outcomes, outcome)

		if !res.Available() {
			report.Degraded++
			a.log.WarnObj("provider unavailable", "provider_unavailable", map[string]any{
				"provider_id": cfg.ID,
				"country":     country,
				"reason":      res.Reason,
			})
			continue
		}

		collected = append(collected, res.Articles...)
		a.log.DebugObj("provider fetch completed", "provider_result", map[string]any{
			"provider_id":        cfg.ID,
			"country":            country,
			"articles_collected": len(res.Articles),
			"running_total":      len(collected),
		})
	}

	return collected, report
}

// fetch resolves and runs one provider inside its own failure boundary.
func (a *Aggregator) fetch(ctx context.Context, cfg providers.Provider, q providers.Query) (res providers.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = providers.Unavailable(cfg.ID, fmt.Sprintf("panic: %v", r))
		}
	}()

	if a.registry == nil {
		return providers.Unavailable(cfg.ID, "fetcher registry is not configured")
	}
	fetcher, err := a.registry.FetcherFor(cfg)
	if err != nil {
		return providers.Unavailable(cfg.ID, err.Error())
	}

	res = fetcher.Fetch(ctx, cfg, q)
	if res.Provider == "" {
		res.Provider = cfg.ID
	}
	if !res.Available() {
		res.Articles = nil
	}
	return res
}
