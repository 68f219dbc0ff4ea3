package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all configuration for the application.
type Config struct {
	Port    string
	BaseURL string
	HubURL  string

	StoreDriver string
	SQLitePath  string
	DatabaseURL string
	RedisURL    string

	// RedisAddr enables the asynq task queue when set.
	RedisAddr string

	LogLevel   string
	LogConsole bool

	SubscribeRatePerSec float64
	SubscribeBurst      int

	// TrustProxy honors X-Forwarded-For and X-Real-IP. Enable it only
	// behind a reverse proxy that overwrites those headers.
	TrustProxy bool
}

// WorkerConfig holds the configuration of the task worker.
type WorkerConfig struct {
	RedisAddr  string
	LogLevel   string
	LogConsole bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8000"),
		BaseURL:             strings.TrimRight(getEnv("BASE_URL", ""), "/"),
		HubURL:              getEnv("HUB_URL", "https://pubsubhubbub.appspot.com/subscribe"),
		StoreDriver:         strings.ToLower(getEnv("STORE_DRIVER", StoreSQLite)),
		SQLitePath:          getEnv("SQLITE_PATH", "data/webhub.db"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogConsole:          getEnv("LOG_FORMAT", "console") != "json",
		SubscribeRatePerSec: getEnvFloat("SUBSCRIBE_RATE_PER_SEC", 1),
		SubscribeBurst:      getEnvInt("SUBSCRIBE_BURST", 5),
		TrustProxy:          getEnvBool("TRUST_PROXY", false),
	}

	switch cfg.StoreDriver {
	case StoreSQLite:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required for the redis store")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", cfg.Port, err)
	}

	return cfg, nil
}

// LoadWorker reads the worker's configuration from environment variables.
func LoadWorker() *WorkerConfig {
	return &WorkerConfig{
		RedisAddr:  getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogConsole: getEnv("LOG_FORMAT", "console") != "json",
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
