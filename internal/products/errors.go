package products

import "errors"

var (
	// ErrNotFound is returned when a product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrProviderRegistration is returned by CreateProduct when the offers
	// service refused the product; the local row has been removed.
	ErrProviderRegistration = errors.New("product registration with offers service failed")
	ErrInvalidRange         = errors.New("from date is after to date")
)
