package products

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Registrar announces new products to the offers service.
type Registrar interface {
	RegisterProduct(ctx context.Context, p Product) bool
}

// Service implements the catalog and offer queries exposed over HTTP.
type Service struct {
	store     Gateway
	registrar Registrar
	log       zerolog.Logger
}

func NewService(store Gateway, registrar Registrar, log zerolog.Logger) *Service {
	return &Service{store: store, registrar: registrar, log: log}
}

// CreateProduct stores the product and registers it with the offers service.
// If registration fails the row is deleted again and ErrProviderRegistration
// is returned.
func (s *Service) CreateProduct(ctx context.Context, name, description string) (Product, error) {
	p, err := s.store.CreateProduct(ctx, name, description)
	if err != nil {
		return Product{}, err
	}

	if s.registrar.RegisterProduct(ctx, p) {
		s.log.Info().Int64("product_id", p.ID).Msg("product created")
		return p, nil
	}

	// compensate even if the caller has gone away
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.store.DeleteProduct(cleanupCtx, p.ID); err != nil && !errors.Is(err, ErrNotFound) {
		s.log.Error().Err(err).Int64("product_id", p.ID).Msg("rollback of unregistered product failed")
		return Product{}, fmt.Errorf("%w (rollback failed: %v)", ErrProviderRegistration, err)
	}
	s.log.Warn().Int64("product_id", p.ID).Msg("product rolled back after registration failure")
	return Product{}, ErrProviderRegistration
}

func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *Service) UpdateProduct(ctx context.Context, p Product) error {
	return s.store.UpdateProduct(ctx, p)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.store.DeleteProduct(ctx, id)
}

// CurrentOffers returns every offer from the product's most recent capture.
func (s *Service) CurrentOffers(ctx context.Context, productID int64) ([]Offer, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.store.OffersAtLatest(ctx, productID)
}

// AllOffers returns the product's full offer history.
func (s *Service) AllOffers(ctx context.Context, productID int64) ([]Offer, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.store.OffersAll(ctx, productID)
}

// Prices returns the price trend for captures in [from, to].
func (s *Service) Prices(ctx context.Context, productID int64, from, to time.Time) (Trend, error) {
	if from.After(to) {
		return Trend{}, ErrInvalidRange
	}
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return Trend{}, err
	}
	samples, err := s.store.PricesInRange(ctx, productID, from, to)
	if err != nil {
		return Trend{}, err
	}
	return ComputeTrend(samples), nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
