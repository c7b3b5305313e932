package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPAddr string `mapstructure:"http_addr"`
	Brand    string `mapstructure:"brand"`

	TargetCount            int           `mapstructure:"target_count"`
	ProvidersFile          string        `mapstructure:"providers_file"`
	PublishersFile         string        `mapstructure:"publishers_file"`
	ProviderTimeoutSeconds int64         `mapstructure:"provider_timeout_seconds"`
	ProviderTimeout        time.Duration `mapstructure:"-"`
	EnrichImages           bool          `mapstructure:"enrich_images"`

	NewsDataAPIKey   string `mapstructure:"newsdata_api_key" json:"-"`
	GNewsAPIKey      string `mapstructure:"gnews_api_key" json:"-"`
	MediaStackAPIKey string `mapstructure:"mediastack_api_key" json:"-"`
	GuardianAPIKey   string `mapstructure:"guardian_api_key" json:"-"`

	CacheType            string        `mapstructure:"cache_type"`
	BBoltPath            string        `mapstructure:"bbolt_path"`
	CacheTTLSeconds      int64         `mapstructure:"cache_ttl_seconds"`
	CacheCleanupSeconds  int64         `mapstructure:"cache_cleanup_interval_seconds"`
	CacheTTL             time.Duration `mapstructure:"-"`
	CacheCleanupInterval time.Duration `mapstructure:"-"`

	DefaultAuthorID string   `mapstructure:"default_author_id"`
	DBDriver        string   `mapstructure:"db_driver"`
	DBDSN           string   `mapstructure:"db_dsn" json:"-"`
	DBReplicaDSNs   string   `mapstructure:"db_replica_dsns" json:"-"`
	ReplicaDSNs     []string `mapstructure:"-" json:"-"`

	RefreshCountriesRaw    string        `mapstructure:"refresh_countries"`
	RefreshCountries       []string      `mapstructure:"-"`
	RefreshIntervalSeconds int64         `mapstructure:"refresh_interval_seconds"`
	RefreshInterval        time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "techbeetle-news-router")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("brand", "Tech Beetle")
	v.SetDefault("target_count", 20)
	v.SetDefault("providers_file", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("provider_timeout_seconds", 15)
	v.SetDefault("enrich_images", false)
	v.SetDefault("newsdata_api_key", "")
	v.SetDefault("gnews_api_key", "")
	v.SetDefault("mediastack_api_key", "")
	v.SetDefault("guardian_api_key", "")
	v.SetDefault("cache_type", "memory")
	v.SetDefault("bbolt_path", "./data/news-cache.db")
	v.SetDefault("cache_ttl_seconds", int64((15*time.Minute)/time.Second))
	v.SetDefault("cache_cleanup_interval_seconds", int64((time.Hour)/time.Second))
	v.SetDefault("default_author_id", "")
	v.SetDefault("db_driver", "postgres")
	v.SetDefault("db_dsn", "")
	v.SetDefault("db_replica_dsns", "")
	v.SetDefault("refresh_countries", "us")
	v.SetDefault("refresh_interval_seconds", 1800)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finalize() error {
	if c.TargetCount <= 0 {
		return fmt.Errorf("invalid target_count (must be positive)")
	}
	if c.ProviderTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid provider_timeout_seconds (must be positive seconds)")
	}
	c.ProviderTimeout = time.Duration(c.ProviderTimeoutSeconds) * time.Second

	if c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("invalid cache_ttl_seconds (must be positive seconds)")
	}
	if c.CacheCleanupSeconds <= 0 {
		return fmt.Errorf("invalid cache_cleanup_interval_seconds (must be positive seconds)")
	}
	c.CacheTTL = time.Duration(c.CacheTTLSeconds) * time.Second
	c.CacheCleanupInterval = time.Duration(c.CacheCleanupSeconds) * time.Second

	if c.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("invalid refresh_interval_seconds (must be positive seconds)")
	}
	c.RefreshInterval = time.Duration(c.RefreshIntervalSeconds) * time.Second

	c.RefreshCountries = splitList(strings.ToLower(c.RefreshCountriesRaw))
	c.ReplicaDSNs = splitList(c.DBReplicaDSNs)
	c.DefaultAuthorID = strings.TrimSpace(c.DefaultAuthorID)
	return nil
}

// ProviderKeys maps provider ids to their configured secrets.
func (c *Config) ProviderKeys() map[string]string {
	return map[string]string{
		"newsdata":   strings.TrimSpace(c.NewsDataAPIKey),
		"gnews":      strings.TrimSpace(c.GNewsAPIKey),
		"mediastack": strings.TrimSpace(c.MediaStackAPIKey),
		"guardian":   strings.TrimSpace(c.GuardianAPIKey),
	}
}

// PersistenceEnabled reports whether ingested articles should be written to the content store.
func (c *Config) PersistenceEnabled() bool {
	return c.DefaultAuthorID != "" && strings.TrimSpace(c.DBDSN) != ""
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
