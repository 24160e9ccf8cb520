package config

import (
	"os"
	"strconv"
	"time"

	"randomnet/internal/errors"
)

// Worker modes
const (
	WorkerModeProcess   = "process"
	WorkerModeGoroutine = "goroutine"
)

// Config represents the complete application configuration
type Config struct {
	Engine   EngineConfig
	Database DatabaseConfig
	Server   ServerConfig
	LogLevel string
}

// EngineConfig holds replicate engine defaults and the caps applied to
// requests arriving over HTTP.
type EngineConfig struct {
	Replicates    int
	Processes     int
	Timeout       time.Duration
	ProgressEvery int
	WorkerMode    string
	Seed          int64

	MaxReplicates int
	MaxProcesses  int
	MaxNodes      int
}

// DatabaseConfig holds database connection settings. An empty URL keeps runs in memory.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether runs are persisted.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ServerConfig holds web server settings. Dataset paths sent over HTTP are
// resolved inside DataDir; an empty DataDir disables them.
type ServerConfig struct {
	Port    string
	DataDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Engine:   *loadEngineConfig(),
		Database: DatabaseConfig{URL: getEnvOrDefault("DATABASE_URL", "")},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			DataDir: getEnvOrDefault("DATA_DIR", ""),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadEngineConfig() *EngineConfig {
	return &EngineConfig{
		Replicates:    getEnvIntOrDefault("REPLICATES", 100000),
		Processes:     getEnvIntOrDefault("PROCESSES", 6),
		Timeout:       getEnvDurationOrDefault("REPLICATE_TIMEOUT", 60*time.Second),
		ProgressEvery: getEnvIntOrDefault("PROGRESS_EVERY", 100),
		WorkerMode:    getEnvOrDefault("WORKER_MODE", WorkerModeProcess),
		Seed:          getEnvInt64OrDefault("WORKER_SEED", 0),
		MaxReplicates: getEnvIntOrDefault("MAX_REPLICATES", 1000000),
		MaxProcesses:  getEnvIntOrDefault("MAX_PROCESSES", 64),
		MaxNodes:      getEnvIntOrDefault("MAX_NODES", 100000),
	}
}

func validateConfig(config *Config) error {
	e := config.Engine
	if e.Replicates < 1 {
		return errors.ConfigInvalid("REPLICATES must be positive")
	}
	if e.Processes < 1 {
		return errors.ConfigInvalid("PROCESSES must be positive")
	}
	if e.Timeout <= 0 {
		return errors.ConfigInvalid("REPLICATE_TIMEOUT must be positive")
	}
	if e.ProgressEvery < 0 {
		return errors.ConfigInvalid("PROGRESS_EVERY must not be negative")
	}
	if e.MaxReplicates < 1 || e.MaxProcesses < 1 || e.MaxNodes < 1 {
		return errors.ConfigInvalid("MAX_REPLICATES, MAX_PROCESSES and MAX_NODES must be positive")
	}
	if e.Replicates > e.MaxReplicates {
		return errors.ConfigInvalid("REPLICATES must not exceed MAX_REPLICATES")
	}
	if e.Processes > e.MaxProcesses {
		return errors.ConfigInvalid("PROCESSES must not exceed MAX_PROCESSES")
	}
	if e.WorkerMode != WorkerModeProcess && e.WorkerMode != WorkerModeGoroutine {
		return errors.ConfigInvalid("WORKER_MODE must be process or goroutine")
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

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
