package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// HTTP surfaces
	ListenAddr  string
	MetricsAddr string

	// Instrument catalog
	CatalogURL string

	// Durable store. Backend is one of "redis", "sqlite" or "mem".
	StoreBackend  string
	RedisAddr     string
	RedisPassword string
	SQLitePath    string

	// Price simulation
	TickIntervalMs int

	// Optional webhook for watchlist lifecycle events. Empty disables it.
	WebhookURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		CatalogURL: getEnv("CATALOG_URL", "http://localhost:9002"),

		StoreBackend:  getEnv("STORE_BACKEND", "sqlite"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/watchlist.db"),

		TickIntervalMs: getEnvInt("TICK_INTERVAL_MS", 3000),

		WebhookURL: getEnv("WEBHOOK_URL", ""),
	}
}

// TickInterval returns the simulator period as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
