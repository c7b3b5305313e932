package providers

import (
	"fmt"
	"strings"
	"time"

	"github.com/techbeetle/news-router/pkg/httpclient"
)

// fetcherRegistry implements FetcherRegistry. It is read-only once built.
type fetcherRegistry struct {
	fetchersByID   map[string]Fetcher
	fetchersByType map[string]Fetcher
}

// NewFetcherRegistry builds a registry for the provided fetcher implementations keyed by provider id.
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	return NewTypeFetcherRegistry(nil, fetchers...)
}

// NewTypeFetcherRegistry builds a registry with optional type-based fetchers and provider-specific fetchers.
func NewTypeFetcherRegistry(typeFetchers map[string]Fetcher, fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		fetchersByID:   make(map[string]Fetcher),
		fetchersByType: make(map[string]Fetcher),
	}

	for _, f := range fetchers {
		if f != nil {
			register(reg.fetchersByID, f.ID(), f)
		}
	}
	for typ, f := range typeFetchers {
		register(reg.fetchersByType, typ, f)
	}
	return reg
}

// register stores f under the normalized key; blank keys and nil fetchers are ignored.
func register(into map[string]Fetcher, key string, f Fetcher) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" || f == nil {
		return
	}
	into[key] = f
}

// FetcherFor selects the fetcher for the given provider based on its id or type.
func (r *fetcherRegistry) FetcherFor(cfg Provider) (Fetcher, error) {
	if r == nil {
		return nil, fmt.Errorf("fetcher registry is nil")
	}
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, fmt.Errorf("provider id is empty")
	}

	idKey := strings.ToLower(strings.TrimSpace(cfg.ID))
	if f, ok := r.fetchersByID[idKey]; ok {
		return f, nil
	}

	typeKey := strings.ToLower(strings.TrimSpace(cfg.Type))
	if typeKey != "" {
		if f, ok := r.fetchersByType[typeKey]; ok {
			return f, nil
		}
	}

	return nil, fmt.Errorf("no fetcher registered for provider %q (type %q)", cfg.ID, cfg.Type)
}

// DefaultHTTPClient returns the resty-backed client used by provider fetchers.
func DefaultHTTPClient() HTTPClient {
	return httpclient.NewRestyClient(httpclient.Options{Timeout: 15 * time.Second})
}

// DefaultFetcherRegistry wires up the built-in fetchers by provider type.
func DefaultFetcherRegistry(client HTTPClient) FetcherRegistry {
	if client == nil {
		client = DefaultHTTPClient()
	}

	typeFetchers := map[string]Fetcher{
		TypeNewsData:   NewNewsDataFetcher(client),
		TypeGNews:      NewGNewsFetcher(client),
		TypeMediaStack: NewMediaStackFetcher(client),
		TypeGuardian:   NewGuardianFetcher(client),
		TypeRSS:        NewRSSFetcher(client),
	}

	return NewTypeFetcherRegistry(typeFetchers)
}
