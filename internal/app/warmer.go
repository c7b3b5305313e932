package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/techbeetle/news-router/internal/ingest"
	"github.com/techbeetle/news-router/internal/logger"
)

// Pipeline serves one news request.
type Pipeline interface {
	Handle(ctx context.Context, req ingest.Request) (*ingest.Response, error)
}

// Warmer periodically refreshes the cache for a fixed set of countries.
type Warmer struct {
	pipeline  Pipeline
	countries []string
	interval  time.Duration
	log       logger.Logger
}

// NewWarmer builds a warmer over the pipeline.
func NewWarmer(p Pipeline, countries []string, interval time.Duration, log logger.Logger) *Warmer {
	return &Warmer{pipeline: p, countries: countries, interval: interval, log: logger.Ensure(log)}
}

// Run refreshes once immediately, then on every tick until ctx is cancelled.
func (w *Warmer) Run(ctx context.Context) error {
	if w == nil || w.pipeline == nil {
		return fmt.Errorf("warmer is not initialized")
	}
	if w.interval <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}
	if len(w.countries) == 0 {
		w.log.WarnObj("no refresh countries configured; warmer idle", "warmer_state", nil)
		<-ctx.Done()
		return nil
	}

	w.log.InfoObj("warmer loop starting", "warmer_state", map[string]any{
		"countries": w.countries,
		"interval":  w.interval.String(),
	})

	if err := w.RunOnce(ctx); err != nil {
		w.log.ErrorObj("initial refresh failed", "error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.InfoObj("warmer loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				w.log.ErrorObj("scheduled refresh failed", "error", err.Error())
			}
		}
	}
}

// RunOnce refreshes every country, bypassing the cache so fresh results replace stale ones.
func (w *Warmer) RunOnce(ctx context.Context) error {
	start := time.Now()
	var errs []error
	for _, country := range w.countries {
		if ctx.Err() != nil {
			break
		}
		resp, err := w.pipeline.Handle(ctx, ingest.Request{Country: country, BypassCache: true})
		if err != nil {
			errs = append(errs, fmt.Errorf("refresh %s: %w", country, err))
			continue
		}
		w.log.DebugObj("country refreshed", "refresh_result", map[string]any{
			"country": country,
			"count":   resp.Count,
		})
	}
	w.log.InfoObj("refresh completed", "refresh_meta", map[string]any{
		"countries":  len(w.countries),
		"failed":     len(errs),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return errors.Join(errs...)
}
