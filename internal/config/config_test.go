package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Port != "8080" {
		t.Fatalf("default port: %q", cfg.Port)
	}
	if cfg.Offers.Concurrency != 5 {
		t.Fatalf("default concurrency: %d", cfg.Offers.Concurrency)
	}
	if cfg.Sync.Interval != 60*time.Second {
		t.Fatalf("default interval: %v", cfg.Sync.Interval)
	}
	if cfg.StoreDriver != StorePostgres {
		t.Fatalf("default store driver: %q", cfg.StoreDriver)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("OFFERS_SERVICE_URL", "https://offers.example.com/api/v1/")
	t.Setenv("OFFERS_SERVICE_CONCURRENCY", "12")
	t.Setenv("OFFERS_SERVICE_TIMEOUT", "3s")
	t.Setenv("OFFERS_SERVICE_RATE_LIMIT", "2.5")
	t.Setenv("SYNC_INTERVAL_SECONDS", "30")
	t.Setenv("STORE_DRIVER", " Memory ")
	t.Setenv("DB_NAME", "offers")
	t.Setenv("DB_SSLMODE", "require")

	cfg := Default()
	FromEnv(&cfg)

	if cfg.Offers.URL != "https://offers.example.com/api/v1" {
		t.Fatalf("url not trimmed: %q", cfg.Offers.URL)
	}
	if cfg.Offers.Concurrency != 12 {
		t.Fatalf("concurrency: %d", cfg.Offers.Concurrency)
	}
	if cfg.Offers.Timeout != 3*time.Second {
		t.Fatalf("timeout: %v", cfg.Offers.Timeout)
	}
	if cfg.Offers.RateLimit != 2.5 {
		t.Fatalf("rate limit: %v", cfg.Offers.RateLimit)
	}
	if cfg.Sync.Interval != 30*time.Second {
		t.Fatalf("interval: %v", cfg.Sync.Interval)
	}
	if cfg.StoreDriver != StoreMemory {
		t.Fatalf("store driver: %q", cfg.StoreDriver)
	}
	if cfg.DB.DBName != "offers" {
		t.Fatalf("db name: %q", cfg.DB.DBName)
	}
	if cfg.DB.SSLMode != "require" {
		t.Fatalf("ssl mode: %q", cfg.DB.SSLMode)
	}
}

func TestFromEnvIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("OFFERS_SERVICE_CONCURRENCY", "many")
	t.Setenv("SYNC_INTERVAL_SECONDS", "soon")

	cfg := Default()
	FromEnv(&cfg)

	if cfg.Offers.Concurrency != 5 {
		t.Fatalf("concurrency changed: %d", cfg.Offers.Concurrency)
	}
	if cfg.Sync.Interval != 60*time.Second {
		t.Fatalf("interval changed: %v", cfg.Sync.Interval)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error for empty config")
	}
	for _, want := range []string{"OFFERS_SERVICE_URL", "APP_INTERNAL_TOKEN", "DB config incomplete"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}

	cfg.Offers.URL = "http://offers"
	cfg.InternalToken = "secret"
	cfg.StoreDriver = StoreMemory
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.StoreDriver = "sqlite"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown store driver error")
	}
}
