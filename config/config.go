// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port     string
	LogLevel string

	// Postgres, for submission attempts
	DatabaseURL string

	// Hosted back-office API
	HostedAPIURL  string
	HostedAPIKey  string
	HostedTimeout time.Duration

	// Redis promotion lock; empty disables locking
	RedisAddress string
	LockTTL      time.Duration

	DefaultCurrency string
}

// Load reads the configuration from environment variables. Call
// godotenv.Load first to pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		HostedAPIURL:    getEnv("HOSTED_API_URL", ""),
		HostedAPIKey:    getEnv("HOSTED_API_KEY", ""),
		RedisAddress:    getEnv("REDIS_ADDRESS", ""),
		DefaultCurrency: strings.ToUpper(getEnv("DEFAULT_CURRENCY", "PHP")),
	}

	var err error
	if cfg.HostedTimeout, err = getDuration("HOSTED_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.LockTTL, err = getDuration("LOCK_TTL", 2*time.Minute); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("DEFAULT_CURRENCY must be a 3-letter code, got %q", c.DefaultCurrency)
	}
	if c.HostedTimeout <= 0 {
		return errors.New("HOSTED_TIMEOUT must be positive")
	}
	// The lock spans the promotion and the invoice-creation calls.
	if c.LockTTL < 2*c.HostedTimeout {
		return fmt.Errorf("LOCK_TTL (%s) must be at least twice HOSTED_TIMEOUT (%s)", c.LockTTL, c.HostedTimeout)
	}
	return nil
}

// RequireHosted reports a missing hosted API address.
func (c *Config) RequireHosted() error {
	if c.HostedAPIURL == "" {
		return errors.New("HOSTED_API_URL is required")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
