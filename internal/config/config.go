// Package config reads service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Defaults for optional settings.
const (
	DefaultDBPath         = "./server_inventory.db"
	DefaultPort           = "8080"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultMaxUploadBytes = 10 << 20
	DefaultGeminiModel    = "gemini-2.5-flash"
)

// Config holds the service configuration.
type Config struct {
	Token          string
	DBPath         string
	Port           string
	LogLevel       string
	LogFormat      string
	MaxUploadBytes int64

	// GeminiAPIKey enables the assistant endpoints when set.
	GeminiAPIKey string
	GeminiModel  string
}

// Load reads configuration from environment variables and applies defaults.
// It returns an error when a required variable is absent or a value does not
// parse.
func Load() (*Config, error) {
	cfg := &Config{
		Token:        os.Getenv("API_TOKEN"),
		DBPath:       getenv("DB_PATH", DefaultDBPath),
		Port:         getenv("PORT", DefaultPort),
		LogLevel:     getenv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:    getenv("LOG_FORMAT", DefaultLogFormat),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getenv("GEMINI_MODEL", DefaultGeminiModel),
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("API_TOKEN environment variable is required")
	}

	cfg.MaxUploadBytes = DefaultMaxUploadBytes
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be a positive integer, got %q", v)
		}
		cfg.MaxUploadBytes = n
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
