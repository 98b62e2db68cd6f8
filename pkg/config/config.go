package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for catalog-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (the database password) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Feed configuration (registrar spreadsheet source)
	Feed FeedConfig `yaml:"feed"`

	// MigrationsPath is the directory holding SQL migration files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"catalog"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"catalog_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// URL builds a connection URL for pgx from the discrete fields.
func (c *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// FeedConfig holds the registrar feed source and import schedule settings.
type FeedConfig struct {
	// SourceURL is the registrar spreadsheet download URL.
	SourceURL string `yaml:"source_url" env:"FEED_SOURCE_URL"`

	// Campus restricts the import to rows for one campus. Empty imports all
	// campuses. Not part of entity identity, purely a filter.
	Campus string `yaml:"campus" env:"FEED_CAMPUS" env-default:"Storrs"`

	// IntervalMinutes is how often the import scheduler runs a pass.
	IntervalMinutes int `yaml:"interval_minutes" env:"FEED_INTERVAL_MINUTES" env-default:"60"`

	// RequestTimeoutSeconds bounds the spreadsheet download.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" env:"FEED_REQUEST_TIMEOUT_SECONDS" env-default:"120"`
}

// Interval returns the import schedule interval as a duration.
func (c *FeedConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// RequestTimeout returns the feed download timeout as a duration.
func (c *FeedConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Feed.SourceURL == "" {
		return fmt.Errorf("feed.source_url is required")
	}
	if _, err := url.Parse(c.Feed.SourceURL); err != nil {
		return fmt.Errorf("feed.source_url is not a valid URL: %w", err)
	}
	if c.Feed.IntervalMinutes <= 0 {
		return fmt.Errorf("feed.interval_minutes must be positive")
	}
	return nil
}
