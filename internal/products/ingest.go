package products

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Ingestor appends fetched offers to the time series. Writing the same batch
// twice leaves the stored set unchanged.
type Ingestor struct {
	store OfferWriter
	log   zerolog.Logger
}

func NewIngestor(store OfferWriter, log zerolog.Logger) *Ingestor {
	return &Ingestor{store: store, log: log}
}

// Ingest returns the number of rows that were new.
func (i *Ingestor) Ingest(ctx context.Context, offers []Offer) (int64, error) {
	if len(offers) == 0 {
		return 0, nil
	}
	n, err := i.store.InsertOffers(ctx, offers)
	if err != nil {
		return 0, fmt.Errorf("ingest %d offers: %w", len(offers), err)
	}
	i.log.Debug().Int("received", len(offers)).Int64("inserted", n).Msg("offers ingested")
	return n, nil
}
