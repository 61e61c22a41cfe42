package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DatabaseDSN string
	Env         string

	FetchTimeout  time.Duration // per-image asset download
	RenderTimeout time.Duration // one document render
	BatchWorkers  int

	RateLimit       int // export requests per window per client
	RateLimitWindow time.Duration
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by user) > default.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", "file:payslip.db?cache=shared")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.FetchTimeout = parseDuration("ASSET_FETCH_TIMEOUT", 10*time.Second)
	cfg.RenderTimeout = parseDuration("RENDER_TIMEOUT", 30*time.Second)
	cfg.BatchWorkers = ParseInt("BATCH_WORKERS", 4)
	cfg.RateLimit = ParseInt("RATE_LIMIT", 30)
	cfg.RateLimitWindow = parseDuration("RATE_LIMIT_WINDOW", time.Minute)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseInt reads an env var as int with default.
func ParseInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid integer for %s: %s", key, v)
			return def
		}
		return n
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid duration for %s: %s", key, v)
			return def
		}
		return d
	}
	return def
}
