package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds process-level configuration read from the environment
type Config struct {
	Env      string
	LogLevel string

	// Feature history storage
	History HistoryConfig

	// NATS; publishing is disabled when empty
	NATSURL string

	// Prometheus textfile export; disabled when empty
	MetricsFile string

	// Assembly fan-out
	Workers int
}

// HistoryConfig selects the feature history backend
type HistoryConfig struct {
	// parquet, sqlite, mysql, postgres or memory
	Backend string

	// File path for parquet/sqlite, connection string for mysql/postgres
	DSN string
}

// DefaultDSN returns the location used when HISTORY_DSN is unset. Server
// backends have none.
func DefaultDSN(backend string) string {
	switch backend {
	case "parquet":
		return "data/history_logs.parquet"
	case "sqlite":
		return "data/history.db"
	default:
		return ""
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		NATSURL:     getEnv("NATS_URL", ""),
		MetricsFile: getEnv("METRICS_FILE", ""),
		Workers:     getEnvInt("WORKERS", 4),

		History: HistoryConfig{
			Backend: getEnv("HISTORY_BACKEND", "parquet"),
			DSN:     getEnv("HISTORY_DSN", ""),
		},
	}

	if cfg.History.DSN == "" {
		cfg.History.DSN = DefaultDSN(cfg.History.Backend)
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	switch c.History.Backend {
	case "parquet", "sqlite", "memory":
	case "mysql", "postgres":
		if c.History.DSN == "" {
			return fmt.Errorf("HISTORY_DSN required when using %s history backend", c.History.Backend)
		}
	default:
		return fmt.Errorf("unsupported HISTORY_BACKEND %q", c.History.Backend)
	}

	if c.Workers <= 0 {
		return fmt.Errorf("WORKERS must be positive, got %d", c.Workers)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
