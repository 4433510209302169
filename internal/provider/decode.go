package provider

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/valeevte/OfferMonitor/internal/products"
)

// wireOffer is one record of the offers service response. Pointer fields let
// the validator tell a missing field from a zero value.
type wireOffer struct {
	ID           *int64 `json:"id" validate:"required"`
	Price        *int64 `json:"price" validate:"required,gte=0"`
	ItemsInStock *int64 `json:"items_in_stock" validate:"required,gte=0"`
}

// decodeOffers turns the response body into offers for productID. Any invalid
// record rejects the whole response.
func decodeOffers(r io.Reader, v *validator.Validate, productID int64, capturedAt time.Time) ([]products.Offer, error) {
	var records []wireOffer
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode offers: %w", err)
	}

	offers := make([]products.Offer, 0, len(records))
	for i, rec := range records {
		if err := v.Struct(rec); err != nil {
			return nil, fmt.Errorf("offer record %d: %w", i, err)
		}
		offers = append(offers, products.Offer{
			ID:           *rec.ID,
			ProductID:    productID,
			Price:        *rec.Price,
			ItemsInStock: *rec.ItemsInStock,
			CapturedAt:   capturedAt,
		})
	}
	return offers, nil
}
