// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Cron       CronConfig       `mapstructure:"cron"`
	Source     SourceConfig     `mapstructure:"source"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Fetcher    FetcherConfig    `mapstructure:"fetcher"`
	Headless   HeadlessConfig   `mapstructure:"headless"`
	Rendering  RenderingConfig  `mapstructure:"rendering"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	DB         DBConfig         `mapstructure:"db"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Events     EventsConfig     `mapstructure:"events"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CronConfig guards the trigger endpoint with a shared secret.
type CronConfig struct {
	Secret string `mapstructure:"secret"`
}

// SourceConfig identifies the listing page and the ingestion floor.
type SourceConfig struct {
	ListingURL      string `mapstructure:"listing_url"`
	WaitForSelector string `mapstructure:"wait_for_selector"`
	FloorDate       string `mapstructure:"floor_date"`
	UserAgent       string `mapstructure:"user_agent"`
}

// SchedulerConfig governs the periodic ingestion driver.
type SchedulerConfig struct {
	IntervalMinutes  int  `mapstructure:"interval_minutes"`
	FailureThreshold int  `mapstructure:"failure_threshold"`
	AutoStart        bool `mapstructure:"auto_start"`
}

// HTTPConfig configures fetch timeout and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds   int `mapstructure:"timeout_seconds"`
	MaxRetries       int `mapstructure:"max_retries"`
	BackoffInitialMs int `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int `mapstructure:"backoff_max_ms"`
}

// FetcherConfig selects the rendering provider.
type FetcherConfig struct {
	// Provider is one of "probe" (plain HTTP), "headless" (local
	// Chrome), or "rendered" (hosted rendering API).
	Provider string `mapstructure:"provider"`
}

// HeadlessConfig configures the local headless-browser fetcher.
type HeadlessConfig struct {
	MaxParallel        int `mapstructure:"max_parallel"`
	NavTimeoutSec      int `mapstructure:"nav_timeout_seconds"`
	MinBodyBytes       int `mapstructure:"min_body_bytes"`
	PromotionThreshold int `mapstructure:"promotion_threshold"`
}

// RenderingConfig configures the hosted rendering API client.
type RenderingConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// EnrichmentConfig bounds the detail-page fan-out.
type EnrichmentConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Width   int  `mapstructure:"width"`
}

// DBConfig controls access to the relational store.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// CacheConfig controls the key-value batch store.
type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	ChunkSize int    `mapstructure:"chunk_size"`
}

// ArchiveConfig selects the raw-snapshot blob store.
type ArchiveConfig struct {
	// Provider is one of "gcs", "local", or "noop".
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	BaseDir   string `mapstructure:"base_dir"`
	Prefix    string `mapstructure:"prefix"`
}

// EventsConfig selects the cycle-completion event publisher.
type EventsConfig struct {
	// Provider is one of "pubsub" or "noop".
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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
	v.SetDefault("server.port", 8080)
	v.SetDefault("source.listing_url", "https://www.whitehouse.gov/presidential-actions/")
	v.SetDefault("source.wait_for_selector", "article")
	v.SetDefault("source.floor_date", "2025-01-20")
	v.SetDefault("source.user_agent", "actions-ingest/0.1")
	v.SetDefault("scheduler.interval_minutes", 30)
	v.SetDefault("scheduler.failure_threshold", 5)
	v.SetDefault("scheduler.auto_start", false)
	v.SetDefault("http.timeout_seconds", 45)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_initial_ms", 250)
	v.SetDefault("http.backoff_max_ms", 5000)
	v.SetDefault("fetcher.provider", "headless")
	v.SetDefault("headless.max_parallel", 2)
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("headless.min_body_bytes", 512)
	v.SetDefault("headless.promotion_threshold", 2048)
	v.SetDefault("rendering.timeout_seconds", 60)
	v.SetDefault("enrichment.enabled", true)
	v.SetDefault("enrichment.width", 5)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.chunk_size", 25)
	v.SetDefault("archive.provider", "noop")
	v.SetDefault("archive.prefix", "listings")
	v.SetDefault("events.provider", "noop")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Source.ListingURL == "" {
		return fmt.Errorf("source.listing_url is required")
	}
	if _, err := c.FloorTime(); err != nil {
		return fmt.Errorf("source.floor_date: %w", err)
	}
	if c.Scheduler.IntervalMinutes <= 0 {
		return fmt.Errorf("scheduler.interval_minutes must be > 0")
	}
	if c.Scheduler.FailureThreshold <= 0 {
		return fmt.Errorf("scheduler.failure_threshold must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	switch c.Fetcher.Provider {
	case "probe":
	case "headless":
		if c.Headless.MaxParallel <= 0 {
			return fmt.Errorf("headless.max_parallel must be > 0")
		}
	case "rendered":
		if c.Rendering.Endpoint == "" || c.Rendering.APIKey == "" {
			return fmt.Errorf("rendering.endpoint and rendering.api_key are required when fetcher.provider is 'rendered'")
		}
	default:
		return fmt.Errorf("unknown fetcher provider: %s", c.Fetcher.Provider)
	}
	if c.Cache.Enabled {
		if c.Cache.Addr == "" {
			return fmt.Errorf("cache.addr is required when cache is enabled")
		}
		if c.Cache.ChunkSize <= 0 {
			return fmt.Errorf("cache.chunk_size must be > 0")
		}
	}
	switch c.Archive.Provider {
	case "", "noop":
	case "gcs":
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket is required when archive.provider is 'gcs'")
		}
	case "local":
		if c.Archive.BaseDir == "" {
			return fmt.Errorf("archive.base_dir is required when archive.provider is 'local'")
		}
	default:
		return fmt.Errorf("unknown archive provider: %s", c.Archive.Provider)
	}
	switch c.Events.Provider {
	case "", "noop":
	case "pubsub":
		if c.Events.ProjectID == "" || c.Events.TopicName == "" {
			return fmt.Errorf("events.project_id and events.topic_name are required when events.provider is 'pubsub'")
		}
	default:
		return fmt.Errorf("unknown events provider: %s", c.Events.Provider)
	}
	return nil
}

// FloorTime parses the ingestion floor date.
func (c Config) FloorTime() (time.Time, error) {
	t, err := time.Parse("2006-01-02", c.Source.FloorDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse floor date %q: %w", c.Source.FloorDate, err)
	}
	return t, nil
}

// CheckInterval converts the scheduler interval into a duration.
func (c Config) CheckInterval() time.Duration {
	return time.Duration(c.Scheduler.IntervalMinutes) * time.Minute
}

// FetchTimeout converts the HTTP timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
