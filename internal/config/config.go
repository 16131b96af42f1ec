// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// defaultUserAgent is the browser UA sent upstream. A bare request with no
// browser-like User-Agent is refused by the engine, so the default is a
// real Chrome string.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Search  SearchConfig  `mapstructure:"search"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// SearchConfig governs the outbound search pipeline.
type SearchConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	ArchiveHost       string `mapstructure:"archive_host"`
	Filetype          string `mapstructure:"filetype"`
	UserAgent         string `mapstructure:"user_agent"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	Retries           int    `mapstructure:"retries"`
	BackoffBaseMs     int    `mapstructure:"backoff_base_ms"`
	Parallelism       int    `mapstructure:"parallelism"`
	MaxResults        int    `mapstructure:"max_results"`
	DefaultNumResults int    `mapstructure:"default_num_results"`
}

// CacheConfig bounds the result cache.
type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
	Capacity   int `mapstructure:"capacity"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NAMI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The service has always read its listen port from PORT.
	if err := v.BindEnv("server.port", "PORT", "NAMI_SERVER_PORT"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.timeout_seconds", 60)
	v.SetDefault("search.base_url", "https://www.google.com/search")
	v.SetDefault("search.archive_host", "archive.org")
	v.SetDefault("search.filetype", "pdf")
	v.SetDefault("search.user_agent", defaultUserAgent)
	v.SetDefault("search.timeout_seconds", 15)
	v.SetDefault("search.retries", 3)
	v.SetDefault("search.backoff_base_ms", 1000)
	v.SetDefault("search.parallelism", 4)
	v.SetDefault("search.max_results", 25)
	v.SetDefault("search.default_num_results", 10)
	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("cache.capacity", 128)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Search.BaseURL == "" {
		return fmt.Errorf("search.base_url must be set")
	}
	if c.Search.TimeoutSeconds <= 0 {
		return fmt.Errorf("search.timeout_seconds must be > 0")
	}
	if c.Search.Retries <= 0 {
		return fmt.Errorf("search.retries must be > 0")
	}
	if c.Search.MaxResults <= 0 || c.Search.DefaultNumResults <= 0 {
		return fmt.Errorf("search.max_results and search.default_num_results must be > 0")
	}
	if c.Search.DefaultNumResults > c.Search.MaxResults {
		return fmt.Errorf("search.default_num_results cannot exceed search.max_results")
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be > 0")
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache.ttl_seconds must be > 0")
	}
	return nil
}

// SearchTimeout converts the configured fetch timeout into a duration.
func (c Config) SearchTimeout() time.Duration {
	return time.Duration(c.Search.TimeoutSeconds) * time.Second
}

// BackoffBase converts the configured backoff base into a duration.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.Search.BackoffBaseMs) * time.Millisecond
}

// CacheTTL converts the configured cache TTL into a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}
