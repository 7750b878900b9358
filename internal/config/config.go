// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-only-change-me"

type Config struct {
	// Environment is "development" or "production".
	Environment string

	// HTTP server
	Port int

	// Storage
	DBDriver    string // sqlite or postgres
	DBPath      string
	DatabaseURL string

	// Locking. An empty RedisURL selects the in-process lock.
	RedisURL string
	LockTTL  time.Duration

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Logging
	LogLevel  string
	LogFormat string // text or json
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnvDefault("APP_ENV", "development"),
		DBDriver:    getEnvDefault("DB_DRIVER", "sqlite"),
		DBPath:      getEnvDefault("DB_PATH", "./data/splitledger.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   getEnvDefault("JWT_SECRET", devJWTSecret),
		LogLevel:    getEnvDefault("LOG_LEVEL", "info"),
		LogFormat:   getEnvDefault("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.Port, err = strconv.Atoi(getEnvDefault("PORT", "8080")); err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	if cfg.TokenTTL, err = time.ParseDuration(getEnvDefault("TOKEN_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if cfg.LockTTL, err = time.ParseDuration(getEnvDefault("LOCK_TTL", "30s")); err != nil {
		return nil, fmt.Errorf("invalid LOCK_TTL: %w", err)
	}

	switch cfg.DBDriver {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	if cfg.IsProduction() && cfg.JWTSecret == devJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
