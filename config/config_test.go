package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/invoicing")
	t.Setenv("HOSTED_API_URL", "")
	t.Setenv("DEFAULT_CURRENCY", "usd")
	t.Setenv("HOSTED_TIMEOUT", "")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOCK_TTL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultCurrency != "USD" {
		t.Errorf("currency = %s, want USD", cfg.DefaultCurrency)
	}
	if cfg.HostedTimeout != 30*time.Second {
		t.Errorf("timeout = %s, want 30s", cfg.HostedTimeout)
	}
	if cfg.LockTTL != 2*time.Minute {
		t.Errorf("lock ttl = %s, want 2m", cfg.LockTTL)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("level = %s, want DEBUG", cfg.SlogLevel())
	}
	if err := cfg.RequireHosted(); err == nil {
		t.Error("RequireHosted accepted an empty URL")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing database", map[string]string{"DATABASE_URL": ""}, "DATABASE_URL"},
		{"bad timeout", map[string]string{"HOSTED_TIMEOUT": "soon"}, "HOSTED_TIMEOUT"},
		{"negative timeout", map[string]string{"HOSTED_TIMEOUT": "-1s"}, "HOSTED_TIMEOUT"},
		{"bad currency", map[string]string{"DEFAULT_CURRENCY": "PESO"}, "DEFAULT_CURRENCY"},
		{"lock shorter than requests", map[string]string{"LOCK_TTL": "45s"}, "LOCK_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/invoicing")
			t.Setenv("HOSTED_TIMEOUT", "")
			t.Setenv("DEFAULT_CURRENCY", "")
			t.Setenv("LOCK_TTL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}
