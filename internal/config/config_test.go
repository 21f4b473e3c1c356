package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "8084" {
		t.Errorf("Port = %q, want default %q", cfg.Server.Port, "8084")
	}
	if cfg.Database.Type != "postgres" {
		t.Errorf("Database.Type = %q, want %q", cfg.Database.Type, "postgres")
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	data := []byte(`
server:
  port: "9090"
database:
  type: "mysql"
geocoder:
  min_interval_seconds: 2
ingest:
  secret: "hunter2"
  daily_run_enabled: true
  daily_run_time: "04:30"
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Server.Port, "9090")
	}
	if cfg.Database.Type != "mysql" {
		t.Errorf("Database.Type = %q, want %q", cfg.Database.Type, "mysql")
	}
	if cfg.Ingest.Secret != "hunter2" || !cfg.Ingest.DailyRunEnabled {
		t.Errorf("Ingest = %+v", cfg.Ingest)
	}
	// Untouched sections keep their defaults.
	if cfg.Feed.BaseURL == "" || cfg.RateLimit.RequestsPerMinute != 30 {
		t.Errorf("defaults lost: feed=%q rate=%d", cfg.Feed.BaseURL, cfg.RateLimit.RequestsPerMinute)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	if err := os.WriteFile(path, []byte("server: [not: a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig returned nil error for malformed YAML")
	}
}

func TestGetMinInterval(t *testing.T) {
	c := GeocoderConfig{MinIntervalSeconds: 0}
	if got := c.GetMinInterval(); got != time.Second {
		t.Errorf("GetMinInterval() = %v, want 1s floor", got)
	}
	c.MinIntervalSeconds = 3
	if got := c.GetMinInterval(); got != 3*time.Second {
		t.Errorf("GetMinInterval() = %v, want 3s", got)
	}
}
