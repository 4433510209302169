package products

import (
	"context"
	"time"
)

// Gateway is the catalog store used by the service and the sync job.
// Implementations must be safe for concurrent callers.
type Gateway interface {
	OfferWriter

	ListProductIDs(ctx context.Context) ([]int64, error)
	OffersAtLatest(ctx context.Context, productID int64) ([]Offer, error)
	OffersAll(ctx context.Context, productID int64) ([]Offer, error)
	// PricesInRange returns samples with from <= captured_at <= to, oldest first.
	PricesInRange(ctx context.Context, productID int64, from, to time.Time) ([]PriceSample, error)

	CreateProduct(ctx context.Context, name, description string) (Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id int64) error

	Ping(ctx context.Context) error
}

// OfferWriter persists offers. Rows whose identity already exists, or whose
// product no longer exists, are skipped; the count of new rows is returned.
type OfferWriter interface {
	InsertOffers(ctx context.Context, offers []Offer) (int64, error)
}
