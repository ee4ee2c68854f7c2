package config

import (
	"fmt"
	"os"
	"strconv"

	"promohypo/internal/errors"
)

// DefaultDatabaseURL is a local sqlite file next to the working directory
const DefaultDatabaseURL = "file:promohypo.db?cache=shared"

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Analysis AnalysisConfig
	Data     DataConfig
}

// DatabaseConfig holds result-store connection settings
type DatabaseConfig struct {
	URL    string
	Driver string // sqlite3 | postgres; empty means detect from URL
}

// AnalysisConfig holds estimation and inference settings
type AnalysisConfig struct {
	Workers         int
	ConfidenceLevel float64
	MaxIterations   int
	Tolerance       float64
	VIFThreshold    float64
	AllowSeparation bool
}

// DataConfig names the default input when the CLI gets no file argument
type DataConfig struct {
	File  string
	Sheet string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: *loadDatabaseConfig(),
		Analysis: *loadAnalysisConfig(),
		Data:     *loadDataConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:    getEnvOrDefault("DATABASE_URL", DefaultDatabaseURL),
		Driver: getEnvOrDefault("DB_DRIVER", ""),
	}
}

func loadAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		Workers:         getEnvIntOrDefault("ANALYSIS_WORKERS", 4),
		ConfidenceLevel: getEnvFloatOrDefault("CONFIDENCE_LEVEL", 0.95),
		MaxIterations:   getEnvIntOrDefault("IRLS_MAX_ITERATIONS", 50),
		Tolerance:       getEnvFloatOrDefault("IRLS_TOLERANCE", 1e-8),
		VIFThreshold:    getEnvFloatOrDefault("VIF_THRESHOLD", 5),
		AllowSeparation: getEnvBoolOrDefault("ALLOW_SEPARATION", false),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		File:  getEnvOrDefault("DATA_FILE", ""),
		Sheet: getEnvOrDefault("DATA_SHEET", ""),
	}
}

// Validate checks ranges; the CLI calls it again after applying flag overrides
func (c *Config) Validate() error {
	return validateConfig(c)
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case "", "sqlite3", "postgres":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("DB_DRIVER must be sqlite3 or postgres, got %q", config.Database.Driver))
	}
	if config.Database.URL == "" {
		return errors.ConfigInvalid("database URL is required")
	}

	a := config.Analysis
	if a.Workers < 1 {
		return errors.ConfigInvalid(fmt.Sprintf("ANALYSIS_WORKERS must be at least 1, got %d", a.Workers))
	}
	if a.ConfidenceLevel <= 0 || a.ConfidenceLevel >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("CONFIDENCE_LEVEL must be in (0, 1), got %g", a.ConfidenceLevel))
	}
	if a.MaxIterations < 1 {
		return errors.ConfigInvalid(fmt.Sprintf("IRLS_MAX_ITERATIONS must be at least 1, got %d", a.MaxIterations))
	}
	if a.Tolerance <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("IRLS_TOLERANCE must be positive, got %g", a.Tolerance))
	}
	if a.VIFThreshold <= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("VIF_THRESHOLD must exceed 1, got %g", a.VIFThreshold))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
