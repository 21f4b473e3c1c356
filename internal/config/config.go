package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Feed      FeedConfig      `yaml:"feed"`
	Geocoder  GeocoderConfig  `yaml:"geocoder"`
	Ingest    IngestConfig    `yaml:"ingest"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	UserAgent string          `yaml:"user_agent"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	Postgres PostgresConfig `yaml:"postgres"`
	MySQL    MySQLConfig    `yaml:"mysql"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// SearchConfig selects the full-text engine used by the search aggregator.
// "database" invokes the store's search procedure; "meilisearch" routes
// free-text queries through a Meilisearch index fed during ingestion.
type SearchConfig struct {
	Engine      string            `yaml:"engine"`
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
}

// FeedConfig contains classifieds feed settings
type FeedConfig struct {
	BaseURL        string `yaml:"base_url"`
	Format         string `yaml:"format"` // "rss" or "json"
	MediaHost      string `yaml:"media_host"`
	MaxListings    int    `yaml:"max_listings"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// GeocoderConfig contains address lookup settings
type GeocoderConfig struct {
	BaseURL            string `yaml:"base_url"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	MinIntervalSeconds int    `yaml:"min_interval_seconds"`
}

// IngestConfig contains ingestion trigger and scheduling settings
type IngestConfig struct {
	Secret          string `yaml:"secret"`
	DailyRunEnabled bool   `yaml:"daily_run_enabled"`
	DailyRunTime    string `yaml:"daily_run_time"`
}

// RateLimitConfig contains API rate limiting settings
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8084",
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Type: "postgres",
			Postgres: PostgresConfig{
				Host:    "db",
				Port:    5432,
				SSLMode: "disable",
			},
		},
		Search: SearchConfig{
			Engine: "database",
		},
		Feed: FeedConfig{
			BaseURL:        "https://www.bazos.cz/rss.php",
			Format:         "rss",
			MediaHost:      "https://www.bazos.cz",
			MaxListings:    30,
			TimeoutSeconds: 30,
		},
		Geocoder: GeocoderConfig{
			BaseURL:            "https://nominatim.openstreetmap.org/search",
			TimeoutSeconds:     10,
			MinIntervalSeconds: 1,
		},
		Ingest: IngestConfig{
			DailyRunEnabled: false,
			DailyRunTime:    "03:00",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 30,
			RequestsPerHour:   600,
		},
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// GetTimeout returns the feed request timeout as a duration
func (c *FeedConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetTimeout returns the geocoder request timeout as a duration
func (c *GeocoderConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetMinInterval returns the mandatory spacing between geocoder calls.
// The upstream service documents no burst tolerance, so the interval is a
// floor, not an average.
func (c *GeocoderConfig) GetMinInterval() time.Duration {
	if c.MinIntervalSeconds <= 0 {
		return time.Second
	}
	return time.Duration(c.MinIntervalSeconds) * time.Second
}
