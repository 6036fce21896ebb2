// Package config loads and validates client config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	StorageFile     = "file"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds client configuration loaded from the environment.
type Config struct {
	// APIBaseURL is the base URL of the remote REST API (e.g. http://localhost:8001).
	APIBaseURL string `mapstructure:"API_BASE_URL"`
	// APITimeout is the per-request timeout (e.g. "15s").
	APITimeout string `mapstructure:"API_TIMEOUT"`
	// StorageDriver selects where the session is persisted: file, sqlite, postgres or memory.
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	// StoragePath is the directory for the file driver and the database file location for sqlite.
	StoragePath string `mapstructure:"STORAGE_PATH"`
	// DatabaseURL is the Postgres DSN; required when StorageDriver is postgres.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// DeviceID overrides the generated device identifier sent at login.
	DeviceID string `mapstructure:"DEVICE_ID"`
	// DeviceName overrides the device name sent at login (defaults to the hostname).
	DeviceName string `mapstructure:"DEVICE_NAME"`
	// PersistTimeout bounds a single background session write (e.g. "5s").
	PersistTimeout string `mapstructure:"PERSIST_TIMEOUT"`
	// AdminRefreshInterval is how often the admin dashboard reloads the user list (e.g. "5s").
	AdminRefreshInterval string `mapstructure:"ADMIN_REFRESH_INTERVAL"`
	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext connection to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// LokiURL is the Grafana Loki base URL session events are also pushed to; empty disables it.
	LokiURL string `mapstructure:"LOKI_URL"`
	// LogLevel is the zap level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored. Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("API_BASE_URL", "http://localhost:8001")
	v.SetDefault("API_TIMEOUT", "15s")
	v.SetDefault("STORAGE_DRIVER", StorageFile)
	v.SetDefault("STORAGE_PATH", defaultStoragePath())
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DEVICE_ID", "")
	v.SetDefault("DEVICE_NAME", "")
	v.SetDefault("PERSIST_TIMEOUT", "5s")
	v.SetDefault("ADMIN_REFRESH_INTERVAL", "5s")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		return nil, errors.New("config: API_BASE_URL must be set")
	}
	if !strings.HasPrefix(cfg.APIBaseURL, "http://") && !strings.HasPrefix(cfg.APIBaseURL, "https://") {
		return nil, errors.New("config: API_BASE_URL must start with http:// or https://")
	}

	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	switch cfg.StorageDriver {
	case StorageFile, StorageSQLite, StorageMemory:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("config: DATABASE_URL must be set when STORAGE_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("config: unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return &cfg, nil
}

// Timeout parses APITimeout. Returns 15s if unset or invalid.
func (c *Config) Timeout() time.Duration {
	return parseDuration(c.APITimeout, 15*time.Second)
}

// PersistWriteTimeout parses PersistTimeout. Returns 5s if unset or invalid.
func (c *Config) PersistWriteTimeout() time.Duration {
	return parseDuration(c.PersistTimeout, 5*time.Second)
}

// AdminRefresh parses AdminRefreshInterval. Returns 5s if unset or invalid.
func (c *Config) AdminRefresh() time.Duration {
	return parseDuration(c.AdminRefreshInterval, 5*time.Second)
}

// StorageDSN returns the database source for the sql-backed drivers: the Postgres DSN for postgres,
// the session.db path under StoragePath for sqlite, and "" otherwise.
func (c *Config) StorageDSN() string {
	switch c.StorageDriver {
	case StoragePostgres:
		return c.DatabaseURL
	case StorageSQLite:
		return filepath.Join(c.StoragePath, "session.db")
	default:
		return ""
	}
}

// MigrationURL returns the golang-migrate database URL for the configured driver, or "" when the
// driver has no schema.
func (c *Config) MigrationURL() string {
	switch c.StorageDriver {
	case StoragePostgres:
		return c.DatabaseURL
	case StorageSQLite:
		return "sqlite://" + filepath.ToSlash(c.StorageDSN())
	default:
		return ""
	}
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".xriep"
	}
	return filepath.Join(home, ".xriep")
}
