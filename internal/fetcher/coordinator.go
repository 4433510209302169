// Package fetcher runs offer fetches for many products with a cap on how
// many are in flight at once.
package fetcher

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/valeevte/OfferMonitor/internal/products"
)

const defaultLimit = 5

// OfferFetcher fetches the current offers of one product.
type OfferFetcher interface {
	FetchOffers(ctx context.Context, productID int64) ([]products.Offer, error)
}

// Stats summarises one FetchAll call.
type Stats struct {
	Requested int
	Succeeded int
	Failed    int
	// Skipped counts products never started because ctx was cancelled.
	Skipped int
}

type Coordinator struct {
	fetcher OfferFetcher
	limit   int64
}

// New returns a Coordinator admitting at most limit concurrent fetches.
func New(f OfferFetcher, limit int) *Coordinator {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Coordinator{fetcher: f, limit: int64(limit)}
}

// FetchAll fetches offers for every id and returns the successful batches in
// no particular order. A failed product is dropped without affecting the
// others. Once ctx is done no new fetches are started.
func (c *Coordinator) FetchAll(ctx context.Context, ids []int64) ([][]products.Offer, Stats) {
	sem := semaphore.NewWeighted(c.limit)
	stats := Stats{Requested: len(ids)}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		batches = make([][]products.Offer, 0, len(ids))
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				mu.Lock()
				stats.Skipped++
				mu.Unlock()
				return
			}
			defer sem.Release(1)

			offers, err := c.fetcher.FetchOffers(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				return
			}
			stats.Succeeded++
			batches = append(batches, offers)
		}(id)
	}
	wg.Wait()
	return batches, stats
}
