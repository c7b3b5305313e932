package cache

import (
	"fmt"
	"strings"
	"time"
)

// Package cache holds computed ingestion responses keyed by country for a TTL window.

// Store is a TTL key-value store for encoded responses.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte, ttl time.Duration) error
	Close() error
}

// Options controls clock and retention characteristics for concrete stores.
type Options struct {
	// Now overrides the wall clock; tests use it to step past expiry.
	Now             func() time.Time
	CleanupInterval time.Duration
}

const defaultCleanupInterval = time.Hour

// NewStore creates the configured cache backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "memory":
		return NewMemory(opts), nil
	case "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt cache requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported cache type %q", typ)
	}
}

// Key builds the cache key for a country and optional query override.
func Key(country, query string) string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return country
	}
	return country + "|" + query
}

func normalizeOptions(opts Options) Options {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                            { return nil }
func (noopStore) Get(string) ([]byte, bool, error)        { return nil, false, nil }
func (noopStore) Put(string, []byte, time.Duration) error { return nil }
