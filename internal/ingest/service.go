package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/techbeetle/news-router/internal/cache"
	"github.com/techbeetle/news-router/internal/domain"
	"github.com/techbeetle/news-router/internal/logger"
)

// generatedAtLayout matches JavaScript's toISOString output.
const generatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Request is one inbound pipeline invocation.
type Request struct {
	Country     string
	Query       string
	BypassCache bool
}

// Response is the payload returned to callers and stored in the cache.
type Response struct {
	Success     bool             `json:"success"`
	Country     string           `json:"country"`
	Count       int              `json:"count"`
	Items       []domain.Article `json:"items"`
	GeneratedAt string           `json:"generated_at"`
}

// Options wires a Service.
type Options struct {
	Cache       cache.Store
	CacheTTL    time.Duration
	Collector   Collector
	Rewriter    *Rewriter
	Store       ArticleStore
	Enricher    ImageEnricher
	TargetCount int
	Now         func() time.Time
	Log         logger.Logger
}

// Service runs the cache-check, aggregate, dedupe, rewrite, persist, cache-write pipeline.
type Service struct {
	cache     cache.Store
	ttl       time.Duration
	collector Collector
	rewriter  *Rewriter
	store     ArticleStore
	enricher  ImageEnricher
	target    int
	now       func() time.Time
	log       logger.Logger
}

// NewService validates options and returns a ready Service.
func NewService(opts Options) (*Service, error) {
	if opts.Collector == nil {
		return nil, fmt.Errorf("ingest service requires a collector")
	}
	if opts.TargetCount <= 0 {
		return nil, fmt.Errorf("target count must be positive, got %d", opts.TargetCount)
	}
	if opts.Cache != nil && opts.CacheTTL <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", opts.CacheTTL)
	}

	s := &Service{
		cache:     opts.Cache,
		ttl:       opts.CacheTTL,
		collector: opts.Collector,
		rewriter:  opts.Rewriter,
		store:     opts.Store,
		enricher:  opts.Enricher,
		target:    opts.TargetCount,
		now:       opts.Now,
		log:       logger.Ensure(opts.Log),
	}
	if s.rewriter == nil {
		s.rewriter = NewRewriter("")
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Handle serves one request. Only unexpected failures inside the pipeline surface as errors;
// provider, persistence and cache problems degrade silently.
func (s *Service) Handle(ctx context.Context, req Request) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("pipeline panic: %v", r)
		}
	}()

	country := strings.ToLower(strings.TrimSpace(req.Country))
	key := cache.Key(country, req.Query)

	if !req.BypassCache {
		if cached, ok := s.readCache(key); ok {
			return cached, nil
		}
	}

	started := s.now()
	runID := uuid.NewString()

	raw, report := s.collector.Collect(ctx, country, s.target, strings.TrimSpace(req.Query))
	unique := Dedupe(raw)
	if len(unique) > s.target {
		unique = unique[:s.target]
	}
	if s.enricher != nil {
		unique = s.enricher.Enrich(ctx, unique)
	}
	items := s.rewriter.RewriteAll(unique, country)

	var stats PersistStats
	if s.store != nil {
		stats = s.store.Persist(ctx, Batch{
			RunID:     runID,
			Country:   country,
			Query:     req.Query,
			Fetched:   len(raw),
			Articles:  items,
			Report:    report,
			StartedAt: started,
		})
	}

	resp = &Response{
		Success:     true,
		Country:     country,
		Count:       len(items),
		Items:       items,
		GeneratedAt: s.now().UTC().Format(generatedAtLayout),
	}
	s.writeCache(key, resp)

	s.log.InfoObj("pipeline completed", "pipeline_result", map[string]any{
		"run_id":   runID,
		"country":  country,
		"query":    req.Query,
		"bypass":   req.BypassCache,
		"fetched":  len(raw),
		"returned": len(items),
		"degraded": report.Degraded,
		"saved":    stats.Saved,
	})
	return resp, nil
}

func (s *Service) readCache(key string) (*Response, bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, ok, err := s.cache.Get(key)
	if err != nil {
		s.log.WarnObj("cache read failed", "cache_error", map[string]any{"key": key, "error": err.Error()})
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		s.log.WarnObj("cache entry unreadable", "cache_error", map[string]any{"key": key, "error": err.Error()})
		return nil, false
	}
	s.log.DebugObj("cache hit", "cache_hit", map[string]any{"key": key, "count": resp.Count})
	return &resp, true
}

func (s *Service) writeCache(key string, resp *Response) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err == nil {
		err = s.cache.Put(key, payload, s.ttl)
	}
	if err != nil {
		s.log.WarnObj("cache write failed", "cache_error", map[string]any{"key": key, "error": err.Error()})
	}
}
