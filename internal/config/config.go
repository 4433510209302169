package config

import (
	"errors"
	"time"

	"github.com/valeevte/OfferMonitor/internal/database"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is the process configuration, built from defaults and the environment.
type Config struct {
	Port    string
	GinMode string

	StoreDriver string
	DB          database.DBConfig

	Offers OffersConfig
	Sync   SyncConfig

	// InternalToken signs and verifies bearer JWTs for mutating routes.
	InternalToken string

	LogLevel  string
	LogFormat string
}

// OffersConfig describes how to reach the external offers service.
type OffersConfig struct {
	URL         string
	Concurrency int
	Timeout     time.Duration
	// RateLimit is in requests per second; 0 disables pacing.
	RateLimit float64
}

type SyncConfig struct {
	Interval time.Duration
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Port:        "8080",
		StoreDriver: StorePostgres,
		DB: database.DBConfig{
			Host: "localhost",
			Port: "5432",
		},
		Offers: OffersConfig{
			Concurrency: 5,
			Timeout:     10 * time.Second,
		},
		Sync: SyncConfig{
			Interval: 60 * time.Second,
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.Offers.URL == "" {
		errs = append(errs, errors.New("OFFERS_SERVICE_URL must be set"))
	}
	if c.Offers.Concurrency <= 0 {
		errs = append(errs, errors.New("OFFERS_SERVICE_CONCURRENCY must be positive"))
	}
	if c.Sync.Interval <= 0 {
		errs = append(errs, errors.New("SYNC_INTERVAL_SECONDS must be positive"))
	}
	if c.InternalToken == "" {
		errs = append(errs, errors.New("APP_INTERNAL_TOKEN must be set"))
	}
	switch c.StoreDriver {
	case StorePostgres:
		if c.DB.User == "" || c.DB.Host == "" || c.DB.Port == "" || c.DB.DBName == "" {
			errs = append(errs, errors.New("DB config incomplete: DB_USER/DB_HOST/DB_PORT/DB_NAME must be set"))
		}
	case StoreMemory:
	default:
		errs = append(errs, errors.New("STORE_DRIVER must be postgres or memory"))
	}
	return errors.Join(errs...)
}
