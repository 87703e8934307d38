package products

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hikari-shop/hikari/internal/platform/httpx"
	"github.com/hikari-shop/hikari/internal/shared"
)

type memoryRepo struct {
	products map[string]Product
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[string]Product)}
}

func (r *memoryRepo) List(ctx context.Context, filter Filter) ([]Product, int, error) {
	var list []Product
	for _, p := range r.products {
		if !p.IsActive {
			continue
		}
		if filter.Featured && !p.Featured {
			continue
		}
		if filter.InStock && p.AvailableStock() == 0 {
			continue
		}
		list = append(list, p)
	}
	return list, len(list), nil
}

func (r *memoryRepo) ListAdmin(ctx context.Context) ([]Product, error) {
	var list []Product
	for _, p := range r.products {
		list = append(list, p)
	}
	return list, nil
}

func (r *memoryRepo) Get(ctx context.Context, id string) (*Product, error) {
	if p, ok := r.products[id]; ok {
		return &p, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) Create(ctx context.Context, p Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *memoryRepo) Update(ctx context.Context, p Product) error {
	if _, ok := r.products[p.ID]; !ok {
		return shared.ErrNotFound
	}
	r.products[p.ID] = p
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func TestCreateDerivesVariantSKUs(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, Product{
		Name:       "Gundam RX-78 Tee",
		SKU:        "GND-TEE",
		Price:      90,
		CategoryID: "cat-1",
		IsActive:   true,
		Variants: []Variant{
			{ColorCode: "blk", ColorName: "Black", Size: "m", Stock: 4},
			{ColorCode: "blk", ColorName: "Black", Size: "l", Stock: 2},
		},
	})
	require.NoError(t, err)
	require.True(t, created.HasVariants)
	require.Equal(t, "GND-TEE-BLK-M", created.Variants[0].SKU)
	require.Equal(t, "GND-TEE-BLK-L", created.Variants[1].SKU)
	require.Equal(t, 6, created.AvailableStock())
}

func TestCreateRejectsDuplicateVariantSKU(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Product{
		Name:       "Gundam RX-78 Tee",
		SKU:        "GND-TEE",
		Price:      90,
		CategoryID: "cat-1",
		Variants: []Variant{
			{ColorCode: "BLK", Size: "M", Stock: 1},
			{ColorCode: "blk", Size: "m", Stock: 1},
		},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateRejectsSalePriceAboveListPrice(t *testing.T) {
	svc := NewService(newMemoryRepo())
	sale := 120.0

	_, err := svc.Create(context.Background(), Product{
		Name:       "Chibi Totoro Plush",
		SKU:        "TTR-PLUSH",
		Price:      100,
		SalePrice:  &sale,
		CategoryID: "cat-2",
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestEffectiveUnitPrice(t *testing.T) {
	sale := 75.0
	p := Product{Price: 100, SalePrice: &sale}
	require.InDelta(t, 75.0, p.EffectiveUnitPrice(), 0.0001)

	p.SalePrice = nil
	require.InDelta(t, 100.0, p.EffectiveUnitPrice(), 0.0001)
}

func TestVariantStockIsAuthoritative(t *testing.T) {
	p := Product{
		Stock:       99,
		HasVariants: true,
		Variants:    []Variant{{ID: "v1", Stock: 2}, {ID: "v2", Stock: 3}},
	}
	require.Equal(t, 5, p.AvailableStock())
	require.NotNil(t, p.VariantByID("v2"))
	require.Nil(t, p.VariantByID("missing"))
}
