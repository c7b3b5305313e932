package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Package providers contains the news provider adapters and their (YAML/JSON) registry.

const (
	TypeNewsData   = "newsdata"
	TypeGNews      = "gnews"
	TypeMediaStack = "mediastack"
	TypeGuardian   = "guardian"
	TypeRSS        = "rss"
)

// Provider is one entry of the provider registry.
type Provider struct {
	ID      string         `json:"id" yaml:"id"`
	Name    string         `json:"name" yaml:"name"`
	Type    string         `json:"type" yaml:"type"`
	BaseURL string         `json:"base_url" yaml:"base_url"`
	Enabled *bool          `json:"enabled" yaml:"enabled"`
	Config  map[string]any `json:"config" yaml:"config"`

	// APIKey is injected from configuration secrets, never read from the registry file.
	APIKey string `json:"-" yaml:"-"`
}

// EnabledValue returns enabled flag defaulting to true.
func (p Provider) EnabledValue() bool {
	if p.Enabled == nil {
		return true
	}
	return *p.Enabled
}

type registryFile struct {
	Providers []Provider `json:"providers" yaml:"providers"`
}

// Registry is an ordered, validated set of providers. Order is priority order.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	idx       map[string]int
}

// DefaultProviders returns the four built-in providers in fixed priority order.
func DefaultProviders() []Provider {
	return []Provider{
		{ID: TypeNewsData, Name: "NewsData", Type: TypeNewsData},
		{ID: TypeGNews, Name: "GNews", Type: TypeGNews},
		{ID: TypeMediaStack, Name: "MediaStack", Type: TypeMediaStack},
		{ID: TypeGuardian, Name: "The Guardian", Type: TypeGuardian},
	}
}

// NewRegistry validates providers and builds a registry preserving their order.
func NewRegistry(list []Provider) (*Registry, error) {
	reg := &Registry{
		providers: make([]Provider, 0, len(list)),
		idx:       make(map[string]int, len(list)),
	}
	for i := range list {
		p := sanitizeProvider(list[i])
		if err := validateProvider(p); err != nil {
			return nil, fmt.Errorf("provider[%d]: %w", i, err)
		}
		if _, exists := reg.idx[p.ID]; exists {
			return nil, fmt.Errorf("duplicate provider id %q", p.ID)
		}
		reg.idx[p.ID] = len(reg.providers)
		reg.providers = append(reg.providers, p)
	}
	return reg, nil
}

// LoadRegistry loads the provider registry from file, or the defaults when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return NewRegistry(DefaultProviders())
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open providers file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}

	parsed, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Providers) == 0 {
		return nil, errors.New("providers file contains no providers entries")
	}
	return NewRegistry(parsed.Providers)
}

// WithKeys injects API keys by provider id, falling back to the provider type so that
// extra entries of a built-in type (say a second newsdata feed) share its key.
func (r *Registry) WithKeys(keys map[string]string) *Registry {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.providers {
		p := &r.providers[i]
		key, ok := keys[p.ID]
		if !ok || strings.TrimSpace(key) == "" {
			if byType, found := keys[p.Type]; found {
				key, ok = byType, true
			}
		}
		if ok {
			p.APIKey = strings.TrimSpace(key)
		}
	}
	return r
}

// All returns a copy of every provider in priority order.
func (r *Registry) All() []Provider {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Enabled returns enabled providers in priority order.
func (r *Registry) Enabled() []Provider {
	all := r.All()
	out := make([]Provider, 0, len(all))
	for _, p := range all {
		if p.EnabledValue() {
			out = append(out, p)
		}
	}
	return out
}

// ByID returns the provider entry for the given id.
func (r *Registry) ByID(id string) (Provider, bool) {
	if r == nil {
		return Provider{}, false
	}
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return Provider{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.idx[id]
	if !ok {
		return Provider{}, false
	}
	return r.providers[i], true
}

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return registryFile{}, errors.New("providers file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (registryFile, error) {
	var reg registryFile
	if err := fn(data, &reg); err != nil {
		return registryFile{}, fmt.Errorf("decode %s providers: %w", name, err)
	}
	return reg, nil
}

func sanitizeProvider(p Provider) Provider {
	p.ID = strings.ToLower(strings.TrimSpace(p.ID))
	p.Name = strings.TrimSpace(p.Name)
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	p.BaseURL = strings.TrimSpace(p.BaseURL)

	if p.Type == "" {
		p.Type = p.ID
	}
	if p.Name == "" {
		p.Name = p.ID
	}
	if p.Config == nil {
		p.Config = map[string]any{}
	}
	return p
}

func validateProvider(p Provider) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.Type == TypeRSS && p.BaseURL == "" {
		return fmt.Errorf("base_url is required for rss provider %q", p.ID)
	}
	return nil
}
