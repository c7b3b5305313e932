package providers

import (
	"strconv"
	"strings"
)

// ConfigString returns the trimmed string value for key from provider.Config or a fallback.
func ConfigString(cfg Provider, key, fallback string) string {
	if cfg.Config != nil {
		if raw, ok := cfg.Config[key]; ok {
			if val, ok := raw.(string); ok {
				if trimmed := strings.TrimSpace(val); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return fallback
}

// ConfigInt returns a positive integer for key from provider.Config or a fallback.
func ConfigInt(cfg Provider, key string, fallback int) int {
	if cfg.Config == nil {
		return fallback
	}
	switch v := cfg.Config[key].(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

const (
	ConfigUserAgentKey = "user_agent"
	ConfigLanguageKey  = "language"
	ConfigMaxPageKey   = "max_page_size"
)

// Headers builds per-provider request headers from a provider config (skips empty values).
func Headers(cfg Provider) map[string]string {
	headers := make(map[string]string, 1)
	if v := ConfigString(cfg, ConfigUserAgentKey, ""); v != "" {
		headers["User-Agent"] = v
	}
	return headers
}

// pageSize clamps the requested limit to what the provider accepts per call.
func pageSize(cfg Provider, limit, providerMax int) int {
	ceiling := ConfigInt(cfg, ConfigMaxPageKey, providerMax)
	if limit <= 0 || limit > ceiling {
		return ceiling
	}
	return limit
}
