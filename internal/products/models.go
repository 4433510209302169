package products

import "time"

type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Offer is one provider quote for a product at a capture time. Offers are
// never updated; (ID, ProductID, CapturedAt) identifies a row.
type Offer struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"product_id"`
	Price        int64     `json:"price"` // minor currency unit
	ItemsInStock int64     `json:"items_in_stock"`
	CapturedAt   time.Time `json:"captured_at"`
}

type PriceSample struct {
	Price      int64     `json:"price"`
	CapturedAt time.Time `json:"captured_at"`
}

// Trend is the ordered price series of a window and the percentage change
// between its first and last sample.
type Trend struct {
	Prices     []int64 `json:"prices"`
	Percentage int64   `json:"percentage"`
}

// OfferView is the API rendering of an offer.
type OfferView struct {
	ID           int64 `json:"id"`
	Price        int64 `json:"price"`
	ItemsInStock int64 `json:"items_in_stock"`
}

func (o Offer) View() OfferView {
	return OfferView{ID: o.ID, Price: o.Price, ItemsInStock: o.ItemsInStock}
}
