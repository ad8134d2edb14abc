package config

import (
	"os"
	"strconv"
	"time"

	"policypulse/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Paths    PathConfig
	Fred     FredConfig
	Database DatabaseConfig
	Server   ServerConfig
	Analysis AnalysisConfig
}

// PathConfig holds file system paths
type PathConfig struct {
	OutputDir string
	DataDir   string
}

// FredConfig holds settings for the FRED series download boundary
type FredConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DatabaseConfig holds optional run-persistence settings.
// Persistence is skipped entirely when URL is empty.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds artifact API server settings
type ServerConfig struct {
	Port string
}

// AnalysisConfig holds statistical defaults
type AnalysisConfig struct {
	MaxLag int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Paths: PathConfig{
			OutputDir: getEnvOrDefault("OUTPUT_DIR", "reports"),
			DataDir:   getEnvOrDefault("DATA_DIR", "data"),
		},
		Fred: FredConfig{
			BaseURL: getEnvOrDefault("FRED_BASE_URL", "https://fred.stlouisfed.org/graph/fredgraph.csv"),
			Timeout: getEnvDurationOrDefault("FRED_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8090"),
		},
		Analysis: AnalysisConfig{
			MaxLag: getEnvIntOrDefault("MAX_LAG", 6),
		},
	}

	if err := validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validate(c *Config) error {
	if c.Paths.OutputDir == "" {
		return errors.ConfigInvalid("OUTPUT_DIR cannot be empty")
	}
	if c.Fred.BaseURL == "" {
		return errors.ConfigInvalid("FRED_BASE_URL cannot be empty")
	}
	if c.Analysis.MaxLag < 1 {
		return errors.ConfigInvalid("MAX_LAG must be at least 1")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDurationOrDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
