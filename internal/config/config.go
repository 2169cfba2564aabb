// Package config reads the process configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds everything the process reads from the environment.
type Config struct {
	// BotToken authenticates against the chat platform. Required.
	BotToken string
	// RedisURL points at the persistence engine. Empty means degraded mode:
	// no duplicate detection, no retention, no reactions.
	RedisURL string
	// UseHTTPServer enables the liveness endpoint on port 10000.
	UseHTTPServer bool
	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string
	// WarnTTL is how long duplicate warnings stay before auto-deletion.
	WarnTTL time.Duration
	// RetentionDays is how long link records are kept.
	RetentionDays int
	// SweepEvery is the number of counted messages between retention sweeps.
	SweepEvery int
}

// Load reads the configuration. Only a missing bot token is an error.
func Load() (*Config, error) {
	_ = godotenv.Load() // ignore error if .env not found (e.g. prod)

	cfg := &Config{
		BotToken:      getEnv("BOT_TOKEN", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		UseHTTPServer: getEnv("USE_HTTP_SERVER", "0") == "1",
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		WarnTTL:       time.Duration(getEnvAsInt("WARN_TTL_SECONDS", 900)) * time.Second,
		RetentionDays: getEnvAsInt("RETENTION_DAYS", 365),
		SweepEvery:    getEnvAsInt("SWEEP_EVERY_MESSAGES", 365),
	}
	if cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN environment variable is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
