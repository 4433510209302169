package main

import (
	"context"
	"fmt"

	"github.com/valeevte/OfferMonitor/internal/config"
	"github.com/valeevte/OfferMonitor/internal/database"
	"github.com/valeevte/OfferMonitor/internal/fetcher"
	"github.com/valeevte/OfferMonitor/internal/logging"
	"github.com/valeevte/OfferMonitor/internal/products"
	"github.com/valeevte/OfferMonitor/internal/provider"
	"github.com/valeevte/OfferMonitor/internal/scheduler"
)

// app holds the components shared by the serve and sync commands.
type app struct {
	store     products.Gateway
	client    *provider.Client
	scheduler *scheduler.Scheduler
	closers   []func()
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	a.client = provider.New(provider.Config{
		BaseURL:   cfg.Offers.URL,
		Timeout:   cfg.Offers.Timeout,
		RateLimit: cfg.Offers.RateLimit,
	}, logging.Component("provider"))
	if err := a.client.Authenticate(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("offers service authentication: %w", err)
	}

	a.scheduler = scheduler.New(
		store,
		fetcher.New(a.client, cfg.Offers.Concurrency),
		products.NewIngestor(store, logging.Component("ingest")),
		scheduler.Config{Interval: cfg.Sync.Interval},
		logging.Component("scheduler"),
	)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func openStore(ctx context.Context, cfg config.Config) (products.Gateway, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		l := logging.Component("database")
		l.Warn().Msg("using in-memory store; data is lost on exit")
		return products.NewMemoryStore(), func() {}, nil
	case config.StorePostgres:
		pool, err := database.Connect(ctx, cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		if err := database.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		// blocks until connections are returned
		return products.NewRepository(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
