package products

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var t0 = time.Date(2022, 4, 21, 10, 0, 0, 0, time.UTC)

func samples(prices ...int64) []PriceSample {
	out := make([]PriceSample, len(prices))
	for i, p := range prices {
		out[i] = PriceSample{Price: p, CapturedAt: t0.Add(time.Duration(i) * time.Hour)}
	}
	return out
}

func TestComputeTrend(t *testing.T) {
	cases := []struct {
		name   string
		prices []int64
		want   int64
	}{
		{"rise", []int64{100, 200}, 100},
		{"fall", []int64{200, 100}, -50},
		{"flat", []int64{100, 130, 100}, 0},
		{"single", []int64{100}, 0},
		{"empty", nil, 0},
		{"zero first", []int64{0, 100}, 0},
		{"rounds half to even", []int64{200, 201}, 0},
		{"rounds up", []int64{300, 302}, 1},
		{"third", []int64{300, 200}, -33},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := ComputeTrend(samples(tc.prices...))
			if tr.Percentage != tc.want {
				t.Fatalf("percentage %d, want %d", tr.Percentage, tc.want)
			}
			if len(tr.Prices) != len(tc.prices) {
				t.Fatalf("prices %v, want %v", tr.Prices, tc.prices)
			}
			for i := range tc.prices {
				if tr.Prices[i] != tc.prices[i] {
					t.Fatalf("prices %v, want %v", tr.Prices, tc.prices)
				}
			}
		})
	}
}

func TestIngestIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	p, _ := store.CreateProduct(ctx, "Product Name", "Product Description")
	ing := NewIngestor(store, zerolog.Nop())

	batch := []Offer{
		{ID: 1, ProductID: p.ID, Price: 100, ItemsInStock: 5, CapturedAt: t0},
		{ID: 2, ProductID: p.ID, Price: 110, ItemsInStock: 3, CapturedAt: t0},
	}
	if n, err := ing.Ingest(ctx, batch); err != nil || n != 2 {
		t.Fatalf("first ingest n=%d err=%v", n, err)
	}
	if n, err := ing.Ingest(ctx, batch); err != nil || n != 0 {
		t.Fatalf("second ingest n=%d err=%v", n, err)
	}
	if n, err := ing.Ingest(ctx, nil); err != nil || n != 0 {
		t.Fatalf("empty ingest n=%d err=%v", n, err)
	}
	all, _ := store.OffersAll(ctx, p.ID)
	if len(all) != 2 {
		t.Fatalf("stored: %+v", all)
	}
}

func TestIngestSkipsDeletedProducts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	p, _ := store.CreateProduct(ctx, "Product Name", "")
	ing := NewIngestor(store, zerolog.Nop())

	n, err := ing.Ingest(ctx, []Offer{
		{ID: 1, ProductID: p.ID, Price: 100, CapturedAt: t0},
		{ID: 1, ProductID: p.ID + 1, Price: 100, CapturedAt: t0},
	})
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestOffersAtLatest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	p, _ := store.CreateProduct(ctx, "Product Name", "")
	later := t0.Add(time.Hour)
	_, _ = store.InsertOffers(ctx, []Offer{
		{ID: 1, ProductID: p.ID, Price: 100, ItemsInStock: 5, CapturedAt: t0},
		{ID: 2, ProductID: p.ID, Price: 200, ItemsInStock: 10, CapturedAt: later},
		{ID: 3, ProductID: p.ID, Price: 210, ItemsInStock: 2, CapturedAt: later},
	})

	latest, _ := store.OffersAtLatest(ctx, p.ID)
	all, _ := store.OffersAll(ctx, p.ID)
	if len(latest) != 2 || len(all) != 3 {
		t.Fatalf("latest=%+v all=%+v", latest, all)
	}
	for _, o := range latest {
		if !o.CapturedAt.Equal(later) {
			t.Fatalf("offer from an older capture: %+v", o)
		}
	}
	if all[0].ID != 1 {
		t.Fatalf("all offers should be oldest first: %+v", all)
	}

	empty, err := store.OffersAtLatest(ctx, 999)
	if err != nil || len(empty) != 0 {
		t.Fatalf("unknown product: %+v %v", empty, err)
	}
}

type stubRegistrar struct {
	ok    bool
	calls int
}

func (r *stubRegistrar) RegisterProduct(context.Context, Product) bool {
	r.calls++
	return r.ok
}

func TestCreateProductRegisters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	reg := &stubRegistrar{ok: true}
	svc := NewService(store, reg, zerolog.Nop())

	p, err := svc.CreateProduct(ctx, "Product Name", "Product Description")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if reg.calls != 1 {
		t.Fatalf("registrar calls: %d", reg.calls)
	}
	got, err := store.GetProduct(ctx, p.ID)
	if err != nil || got.Name != "Product Name" || got.Description != "Product Description" {
		t.Fatalf("stored product %+v err=%v", got, err)
	}
}

func TestCreateProductRollsBackOnRegistrationFailure(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(store, &stubRegistrar{ok: false}, zerolog.Nop())

	_, err := svc.CreateProduct(ctx, "Product Name", "Product Description")
	if !errors.Is(err, ErrProviderRegistration) {
		t.Fatalf("expected ErrProviderRegistration, got %v", err)
	}
	ids, _ := store.ListProductIDs(ctx)
	if len(ids) != 0 {
		t.Fatalf("product row left behind: %v", ids)
	}
}

func TestCreateProductRollsBackWhenCallerCancelled(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	svc := NewService(store, registrarFunc(func(context.Context, Product) bool {
		cancel()
		return false
	}), zerolog.Nop())

	if _, err := svc.CreateProduct(ctx, "Product Name", ""); !errors.Is(err, ErrProviderRegistration) {
		t.Fatalf("expected ErrProviderRegistration, got %v", err)
	}
	if ids, _ := store.ListProductIDs(context.Background()); len(ids) != 0 {
		t.Fatalf("product row left behind: %v", ids)
	}
}

type registrarFunc func(context.Context, Product) bool

func (f registrarFunc) RegisterProduct(ctx context.Context, p Product) bool { return f(ctx, p) }

func TestServiceNotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), &stubRegistrar{ok: true}, zerolog.Nop())

	if _, err := svc.CurrentOffers(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("current offers: %v", err)
	}
	if _, err := svc.AllOffers(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("all offers: %v", err)
	}
	if _, err := svc.Prices(ctx, 42, t0, t0.Add(time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("prices: %v", err)
	}
	if err := svc.UpdateProduct(ctx, Product{ID: 42, Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update: %v", err)
	}
	if err := svc.DeleteProduct(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete: %v", err)
	}
}

func TestServicePricesWindow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(store, &stubRegistrar{ok: true}, zerolog.Nop())
	p, _ := svc.CreateProduct(ctx, "Product Name", "")

	_, _ = store.InsertOffers(ctx, []Offer{
		{ID: 1, ProductID: p.ID, Price: 50, CapturedAt: t0.Add(-time.Hour)},
		{ID: 1, ProductID: p.ID, Price: 100, CapturedAt: t0.Add(time.Hour)},
		{ID: 2, ProductID: p.ID, Price: 200, CapturedAt: t0.Add(2 * time.Hour)},
		{ID: 1, ProductID: p.ID, Price: 400, CapturedAt: t0.Add(7 * time.Hour)},
	})

	tr, err := svc.Prices(ctx, p.ID, t0, t0.Add(6*time.Hour))
	if err != nil {
		t.Fatalf("prices: %v", err)
	}
	if tr.Percentage != 100 || len(tr.Prices) != 2 || tr.Prices[0] != 100 || tr.Prices[1] != 200 {
		t.Fatalf("trend: %+v", tr)
	}

	// bounds are inclusive
	tr, _ = svc.Prices(ctx, p.ID, t0.Add(time.Hour), t0.Add(time.Hour))
	if len(tr.Prices) != 1 || tr.Percentage != 0 {
		t.Fatalf("single-sample trend: %+v", tr)
	}

	if _, err := svc.Prices(ctx, p.ID, t0.Add(time.Hour), t0); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestDeleteProductCascadesOffers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	p, _ := store.CreateProduct(ctx, "Product Name", "")
	_, _ = store.InsertOffers(ctx, []Offer{{ID: 1, ProductID: p.ID, Price: 1, CapturedAt: t0}})

	if err := store.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if all, _ := store.OffersAll(ctx, p.ID); len(all) != 0 {
		t.Fatalf("offers survived delete: %+v", all)
	}
}
