package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Source.ListingURL != "https://www.whitehouse.gov/presidential-actions/" {
		t.Fatalf("unexpected default listing url: %s", cfg.Source.ListingURL)
	}
	if cfg.Scheduler.IntervalMinutes != 30 || cfg.Scheduler.FailureThreshold != 5 {
		t.Fatalf("unexpected scheduler defaults: %+v", cfg.Scheduler)
	}
	if cfg.Fetcher.Provider != "headless" {
		t.Fatalf("expected default fetcher provider headless, got %s", cfg.Fetcher.Provider)
	}
	if cfg.Cache.ChunkSize != 25 {
		t.Fatalf("expected default chunk size 25, got %d", cfg.Cache.ChunkSize)
	}
	floor, err := cfg.FloorTime()
	if err != nil {
		t.Fatalf("FloorTime() error = %v", err)
	}
	if !floor.Equal(time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected floor date: %v", floor)
	}
	if got := cfg.CheckInterval(); got != 30*time.Minute {
		t.Fatalf("expected check interval 30m, got %v", got)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
cron:
  secret: s3cret
source:
  listing_url: https://example.gov/actions/
  floor_date: "2025-02-01"
scheduler:
  interval_minutes: 10
  failure_threshold: 3
  auto_start: true
fetcher:
  provider: probe
cache:
  enabled: true
  addr: localhost:6379
  chunk_size: 10
archive:
  provider: local
  base_dir: /tmp/snapshots
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Cron.Secret != "s3cret" {
		t.Fatalf("expected cron secret to load")
	}
	if cfg.Scheduler.IntervalMinutes != 10 || !cfg.Scheduler.AutoStart {
		t.Fatalf("expected scheduler overrides to apply: %+v", cfg.Scheduler)
	}
	if cfg.Fetcher.Provider != "probe" {
		t.Fatalf("expected probe provider, got %s", cfg.Fetcher.Provider)
	}
	if !cfg.Cache.Enabled || cfg.Cache.ChunkSize != 10 {
		t.Fatalf("expected cache overrides to apply: %+v", cfg.Cache)
	}
	if cfg.Archive.Provider != "local" || cfg.Archive.BaseDir != "/tmp/snapshots" {
		t.Fatalf("expected archive overrides to apply: %+v", cfg.Archive)
	}
	if got := cfg.CheckInterval(); got != 10*time.Minute {
		t.Fatalf("expected check interval 10m, got %v", got)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:    ServerConfig{Port: 8080},
		Source:    SourceConfig{ListingURL: "https://example.gov/", FloorDate: "2025-01-20"},
		Scheduler: SchedulerConfig{IntervalMinutes: 30, FailureThreshold: 5},
		HTTP:      HTTPConfig{TimeoutSeconds: 45},
		Fetcher:   FetcherConfig{Provider: "headless"},
		Headless:  HeadlessConfig{MaxParallel: 2},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}
	probe := base
	probe.Fetcher = FetcherConfig{Provider: "probe"}
	if err := probe.Validate(); err != nil {
		t.Fatalf("probe provider should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"invalid port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"missing listing url", func(c *Config) { c.Source.ListingURL = "" }, "source.listing_url"},
		{"bad floor date", func(c *Config) { c.Source.FloorDate = "soon" }, "source.floor_date"},
		{"invalid interval", func(c *Config) { c.Scheduler.IntervalMinutes = 0 }, "scheduler.interval_minutes"},
		{"invalid threshold", func(c *Config) { c.Scheduler.FailureThreshold = 0 }, "scheduler.failure_threshold"},
		{"unknown provider", func(c *Config) { c.Fetcher.Provider = "psychic" }, "unknown fetcher provider"},
		{"rendered needs endpoint", func(c *Config) { c.Fetcher.Provider = "rendered" }, "rendering.endpoint"},
		{"cache needs addr", func(c *Config) { c.Cache.Enabled = true }, "cache.addr"},
		{"gcs needs bucket", func(c *Config) { c.Archive.Provider = "gcs" }, "archive.gcs_bucket"},
		{"local needs base dir", func(c *Config) { c.Archive.Provider = "local" }, "archive.base_dir"},
		{"unknown archive provider", func(c *Config) { c.Archive.Provider = "tape" }, "unknown archive provider"},
		{"pubsub needs project", func(c *Config) { c.Events.Provider = "pubsub" }, "events.project_id"},
		{"unknown events provider", func(c *Config) { c.Events.Provider = "carrier-pigeon" }, "unknown events provider"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
