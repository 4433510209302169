package products

import (
	"context"
	"sort"
	"sync"
	"time"
)

type offerKey struct {
	id, productID int64
	capturedAt    int64
}

// MemoryStore is an in-process Gateway. It keeps nothing across restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	products map[int64]Product
	offers   []Offer
	seen     map[offerKey]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[int64]Product),
		seen:     make(map[offerKey]struct{}),
	}
}

var _ Gateway = (*MemoryStore)(nil)

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) CreateProduct(_ context.Context, name, description string) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p := Product{ID: m.nextID, Name: name, Description: description}
	m.products[p.ID] = p
	return p, nil
}

func (m *MemoryStore) GetProduct(_ context.Context, id int64) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) UpdateProduct(_ context.Context, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return ErrNotFound
	}
	m.products[p.ID] = p
	return nil
}

// DeleteProduct removes the product and its offers, like the cascading
// foreign key in Postgres.
func (m *MemoryStore) DeleteProduct(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)

	kept := m.offers[:0]
	for _, o := range m.offers {
		if o.ProductID == id {
			delete(m.seen, keyOf(o))
			continue
		}
		kept = append(kept, o)
	}
	m.offers = kept
	return nil
}

func (m *MemoryStore) ListProductIDs(context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0, len(m.products))
	for id := range m.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *MemoryStore) InsertOffers(_ context.Context, offers []Offer) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var inserted int64
	for _, o := range offers {
		if _, ok := m.products[o.ProductID]; !ok {
			continue
		}
		k := keyOf(o)
		if _, dup := m.seen[k]; dup {
			continue
		}
		m.seen[k] = struct{}{}
		m.offers = append(m.offers, o)
		inserted++
	}
	return inserted, nil
}

func (m *MemoryStore) OffersAtLatest(ctx context.Context, productID int64) ([]Offer, error) {
	all, _ := m.OffersAll(ctx, productID)
	if len(all) == 0 {
		return all, nil
	}
	latest := all[len(all)-1].CapturedAt
	out := []Offer{}
	for _, o := range all {
		if o.CapturedAt.Equal(latest) {
			out = append(out, o)
		}
	}
	return out, nil
}

// OffersAll returns the product's offers ordered by capture time, then id.
func (m *MemoryStore) OffersAll(_ context.Context, productID int64) ([]Offer, error) {
	m.mu.RLock()
	out := []Offer{}
	for _, o := range m.offers {
		if o.ProductID == productID {
			out = append(out, o)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CapturedAt.Equal(out[j].CapturedAt) {
			return out[i].CapturedAt.Before(out[j].CapturedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) PricesInRange(ctx context.Context, productID int64, from, to time.Time) ([]PriceSample, error) {
	all, _ := m.OffersAll(ctx, productID)
	samples := []PriceSample{}
	for _, o := range all {
		if o.CapturedAt.Before(from) || o.CapturedAt.After(to) {
			continue
		}
		samples = append(samples, PriceSample{Price: o.Price, CapturedAt: o.CapturedAt})
	}
	return samples, nil
}

func keyOf(o Offer) offerKey {
	return offerKey{id: o.ID, productID: o.ProductID, capturedAt: o.CapturedAt.UnixNano()}
}
