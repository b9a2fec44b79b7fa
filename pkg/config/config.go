// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	// Dataset locations
	DataDir   string
	OutputDir string
	Delimiter rune

	// Curation inputs
	DictionaryPath string
	PlanPath       string
	GroupColumns   []string

	// Pipeline settings
	WorkerPoolSize int
	MinRows        int

	// Ordination
	NMDSSeed int64

	// Audit database (optional; empty disables persistence)
	AuditDSN string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from a .env file (if present) and environment
// variables
func Load() (*Config, error) {
	// Missing .env is fine; environment variables still apply
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:        getEnv("DATA_DIR", "data"),
		OutputDir:      getEnv("OUTPUT_DIR", "out"),
		DictionaryPath: getEnv("TAXON_DICTIONARY", ""),
		PlanPath:       getEnv("CLEANING_PLAN", ""),
		GroupColumns:   splitList(getEnv("GROUP_COLUMNS", "gradient,site,plot")),
		WorkerPoolSize: getEnvAsInt("WORKER_POOL_SIZE", 0), // 0 means use runtime.NumCPU()
		MinRows:        getEnvAsInt("MIN_ROWS", 1),
		NMDSSeed:       int64(getEnvAsInt("NMDS_SEED", 42)),
		AuditDSN:       getEnv("AUDIT_DSN", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}

	delimiter := getEnv("DELIMITER", ",")
	switch delimiter {
	case "tab", "\\t":
		cfg.Delimiter = '\t'
	default:
		runes := []rune(delimiter)
		if len(runes) != 1 {
			return nil, fmt.Errorf("DELIMITER must be a single character, got %q", delimiter)
		}
		cfg.Delimiter = runes[0]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data directory is required")
	}

	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}

	if c.WorkerPoolSize < 0 {
		return errors.New("worker pool size cannot be negative")
	}

	if c.MinRows < 0 {
		return errors.New("minimum row count cannot be negative")
	}

	if len(c.GroupColumns) == 0 {
		return errors.New("at least one grouping column is required")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
