package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/techbeetle/news-router/internal/cache"
	"github.com/techbeetle/news-router/internal/config"
	"github.com/techbeetle/news-router/internal/content"
	"github.com/techbeetle/news-router/internal/ingest"
	"github.com/techbeetle/news-router/internal/logger"
	"github.com/techbeetle/news-router/pkg/httpclient"
	"github.com/techbeetle/news-router/pkg/providers"
	"github.com/techbeetle/news-router/pkg/publishers"
	"gorm.io/gorm"
)

const enrichDelay = 250 * time.Millisecond

// Runtime owns every long-lived dependency of the news router and the pipeline built on them.
type Runtime struct {
	cfg         *config.Config
	log         logger.Logger
	providerReg *providers.Registry
	fanout      *publishers.Fanout
	cache       cache.Store
	db          *gorm.DB
	service     *ingest.Service
}

// NewRuntime builds the runtime from config. Persistence and publishers are optional.
func NewRuntime(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	rt := &Runtime{cfg: cfg, log: log}

	providerReg, err := providers.LoadRegistry(cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("load providers registry: %w", err)
	}
	rt.providerReg = providerReg.WithKeys(cfg.ProviderKeys())
	enabled := rt.providerReg.Enabled()
	log.InfoObj("providers registry loaded", "providers_meta", providerSummaries(enabled))

	if err := rt.initPublishers(ctx); err != nil {
		return nil, err
	}

	store, err := cache.NewStore(cfg.CacheType, cfg.BBoltPath, cache.Options{CleanupInterval: cfg.CacheCleanupInterval})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("init cache: %w", err)
	}
	rt.cache = store
	log.InfoObj("cache initialized", "cache_config", map[string]any{
		"type":                     cfg.CacheType,
		"path":                     cfg.BBoltPath,
		"ttl_seconds":              int(cfg.CacheTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.CacheCleanupInterval.Seconds()),
	})

	var repo content.Repository
	if cfg.DBDSN != "" {
		db, err := content.Open(content.Options{Driver: cfg.DBDriver, DSN: cfg.DBDSN, ReplicaDSNs: cfg.ReplicaDSNs})
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("open content store: %w", err)
		}
		rt.db = db
		repo = content.NewGormRepository(db)
	}
	log.InfoObj("persistence configured", "persistence_config", map[string]any{
		"driver":   cfg.DBDriver,
		"enabled":  cfg.PersistenceEnabled(),
		"replicas": len(cfg.ReplicaDSNs),
	})

	client := httpclient.NewRestyClient(httpclient.Options{Timeout: cfg.ProviderTimeout})
	var enricher ingest.ImageEnricher
	if cfg.EnrichImages {
		enricher = ingest.NewOGEnricher(client, enrichDelay, log)
	}

	svc, err := ingest.NewService(ingest.Options{
		Cache:     rt.cache,
		CacheTTL:  cfg.CacheTTL,
		Collector: ingest.NewAggregator(providers.DefaultFetcherRegistry(client), enabled, log),
		Rewriter:  ingest.NewRewriter(cfg.Brand),
		Store: ingest.NewPersister(ingest.PersisterOptions{
			Repository: repo,
			Events:     rt.fanout,
			AuthorID:   cfg.DefaultAuthorID,
			Log:        log,
		}),
		Enricher:    enricher,
		TargetCount: cfg.TargetCount,
		Log:         log,
	})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	rt.service = svc
	return rt, nil
}

func (r *Runtime) initPublishers(ctx context.Context) error {
	sinks, err := publishers.LoadSinks(r.cfg.PublishersFile)
	if err != nil {
		return fmt.Errorf("load publishers: %w", err)
	}

	fanout, err := publishers.Open(ctx, sinks, r.log)
	if err != nil {
		return fmt.Errorf("open publishers: %w", err)
	}
	r.fanout = fanout

	summaries := make([]map[string]string, 0, len(sinks))
	for _, sink := range sinks {
		summaries = append(summaries, map[string]string{"id": sink.ID, "type": sink.Type})
	}
	r.log.InfoObj("publishers opened", "publishers_meta", map[string]any{
		"count":      fanout.Size(),
		"publishers": summaries,
	})
	return nil
}

// Service returns the request pipeline.
func (r *Runtime) Service() *ingest.Service {
	return r.service
}

// DB returns the content database, or nil when persistence is not configured.
func (r *Runtime) DB() *gorm.DB {
	return r.db
}

// Close releases the cache, database and publisher connections.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.cache != nil {
		if err := r.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if err := content.Close(r.db); err != nil {
		errs = append(errs, fmt.Errorf("close content store: %w", err))
	}
	if err := r.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func providerSummaries(list []providers.Provider) map[string]any {
	ids := make([]string, 0, len(list))
	missingKeys := make([]string, 0)
	for _, p := range list {
		ids = append(ids, p.ID)
		if p.Type != providers.TypeRSS && p.APIKey == "" {
			missingKeys = append(missingKeys, p.ID)
		}
	}
	return map[string]any{
		"count":        len(ids),
		"ids":          ids,
		"missing_keys": missingKeys,
	}
}
