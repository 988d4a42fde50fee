package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const envPrefix = "BUILDSTATS_"

// Config holds all configuration for the application
type Config struct {
	// Observability
	LogLevel        string
	LogFile         string
	TracingEnabled  bool
	TracingEndpoint string
	TracingProtocol string

	// Thresholds profile, empty means built-in defaults
	ThresholdsPath string

	// Parse cache (bbolt), empty disables caching
	CachePath string

	// Diff export
	ClickHouseEnabled bool
	ClickHouseHost    string
	ClickHousePort    int
	ClickHouseDB      string

	// Output
	OutputFormat string // text, json or yaml
	Color        string // auto, always or never
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         getEnv("LOG_FILE", ""),
		TracingEnabled:  getEnvBool("TRACING_ENABLED", false),
		TracingEndpoint: getEnv("TRACING_ENDPOINT", ""),
		TracingProtocol: getEnv("TRACING_PROTOCOL", "grpc"),

		ThresholdsPath: getEnv("THRESHOLDS_PATH", ""),
		CachePath:      getEnv("CACHE_PATH", ""),

		ClickHouseEnabled: getEnvBool("CLICKHOUSE_ENABLED", false),
		ClickHouseHost:    getEnv("CLICKHOUSE_HOST", "localhost"),
		ClickHousePort:    getEnvInt("CLICKHOUSE_PORT", 9000),
		ClickHouseDB:      getEnv("CLICKHOUSE_DB", "buildstats"),

		OutputFormat: strings.ToLower(getEnv("OUTPUT_FORMAT", "text")),
		Color:        strings.ToLower(getEnv("COLOR", "auto")),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.OutputFormat {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("%sOUTPUT_FORMAT must be one of text, json, yaml", envPrefix)
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("%sCOLOR must be one of auto, always, never", envPrefix)
	}
	if c.TracingEnabled && c.TracingProtocol != "grpc" && c.TracingProtocol != "http" {
		return fmt.Errorf("%sTRACING_PROTOCOL must be grpc or http", envPrefix)
	}
	if c.ClickHouseEnabled {
		if c.ClickHouseHost == "" {
			return fmt.Errorf("%sCLICKHOUSE_HOST is required", envPrefix)
		}
		if c.ClickHousePort <= 0 || c.ClickHousePort > 65535 {
			return fmt.Errorf("%sCLICKHOUSE_PORT must be between 1 and 65535", envPrefix)
		}
		if c.ClickHouseDB == "" {
			return fmt.Errorf("%sCLICKHOUSE_DB is required", envPrefix)
		}
	}

	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
