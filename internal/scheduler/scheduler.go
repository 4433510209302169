package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/valeevte/OfferMonitor/internal/fetcher"
	"github.com/valeevte/OfferMonitor/internal/products"
)

const (
	defaultInterval = 60 * time.Second
	// ingestGrace bounds the final write of a pass interrupted by shutdown.
	ingestGrace = 10 * time.Second
)

type ProductLister interface {
	ListProductIDs(ctx context.Context) ([]int64, error)
}

type BatchFetcher interface {
	FetchAll(ctx context.Context, ids []int64) ([][]products.Offer, fetcher.Stats)
}

type Ingester interface {
	Ingest(ctx context.Context, offers []products.Offer) (int64, error)
}

// Config holds the scheduler settings.
type Config struct {
	// Interval is measured from the start of one pass to the start of the next.
	Interval time.Duration
}

// PassResult describes one completed sync pass.
type PassResult struct {
	ID       uuid.UUID
	Products int
	Fetched  int
	Failed   int
	Offers   int
	Inserted int64
	Duration time.Duration
}

// Scheduler periodically syncs offers for every catalog product.
type Scheduler struct {
	lister   ProductLister
	fetcher  BatchFetcher
	ingester Ingester
	interval time.Duration
	log      zerolog.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

func New(lister ProductLister, f BatchFetcher, ing Ingester, cfg Config, log zerolog.Logger) *Scheduler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		lister:   lister,
		fetcher:  f,
		ingester: ing,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled or Stop is called. The first pass starts
// immediately. A failing pass is logged and never ends the loop; a pass that
// overruns the interval is followed by the next one straight away.
func (s *Scheduler) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
	for {
		start := time.Now()
		s.safePass(ctx)

		timer := time.NewTimer(nextDelay(s.interval, time.Since(start)))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info().Msg("scheduler stopped")
			return
		case <-timer.C:
		}
	}
}

// Stop asks Run to return after the in-flight pass winds down.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Scheduler) safePass(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("sync pass panicked")
		}
	}()
	res, err := s.RunPass(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("pass_id", res.ID.String()).Msg("sync pass failed")
		return
	}
	s.log.Info().
		Str("pass_id", res.ID.String()).
		Int("products", res.Products).
		Int("fetched", res.Fetched).
		Int("failed", res.Failed).
		Int64("inserted", res.Inserted).
		Dur("took", res.Duration).
		Msg("sync pass finished")
}

// RunPass performs one synchronization over all products. Products whose
// fetch fails are skipped until the next pass.
func (s *Scheduler) RunPass(ctx context.Context) (res PassResult, err error) {
	res.ID = uuid.New()
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	ids, err := s.lister.ListProductIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("list product ids: %w", err)
	}
	res.Products = len(ids)
	if len(ids) == 0 {
		return res, nil
	}

	batches, stats := s.fetcher.FetchAll(ctx, ids)
	res.Fetched = stats.Succeeded
	res.Failed = stats.Failed + stats.Skipped

	var offers []products.Offer
	for _, b := range batches {
		offers = append(offers, b...)
	}
	res.Offers = len(offers)

	// what was fetched before a shutdown is still written
	ictx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ictx, cancel = context.WithTimeout(context.WithoutCancel(ctx), ingestGrace)
		defer cancel()
	}
	res.Inserted, err = s.ingester.Ingest(ictx, offers)
	return res, err
}

func nextDelay(interval, elapsed time.Duration) time.Duration {
	if d := interval - elapsed; d > 0 {
		return d
	}
	return 0
}
