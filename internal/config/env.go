package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// FromEnv overlays environment variables onto cfg. Malformed numeric values
// leave the current setting untouched.
func FromEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		cfg.GinMode = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.StoreDriver = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv("DB_USER"); v != "" {
		cfg.DB.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.DB.Password = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.DB.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		cfg.DB.Port = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.DB.DBName = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		cfg.DB.SSLMode = v
	}

	if v := os.Getenv("OFFERS_SERVICE_URL"); v != "" {
		cfg.Offers.URL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("OFFERS_SERVICE_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Offers.Concurrency = n
		}
	}
	if v := os.Getenv("OFFERS_SERVICE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Offers.Timeout = d
		}
	}
	if v := os.Getenv("OFFERS_SERVICE_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Offers.RateLimit = f
		}
	}
	if v := os.Getenv("SYNC_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sync.Interval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("APP_INTERNAL_TOKEN"); v != "" {
		cfg.InternalToken = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}

// Load returns defaults overlaid with the environment.
func Load() Config {
	cfg := Default()
	FromEnv(&cfg)
	return cfg
}
