package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hikari-shop/hikari/internal/catalog/products"
	"github.com/hikari-shop/hikari/internal/platform/httpx"
	"github.com/hikari-shop/hikari/internal/shared"
)

type memoryRepo struct {
	items map[string]Item
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[string]Item)}
}

func (r *memoryRepo) ListByUser(ctx context.Context, userID string) ([]Item, error) {
	var out []Item
	for _, item := range r.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, userID, itemID string) (*Item, error) {
	if item, ok := r.items[itemID]; ok && item.UserID == userID {
		return &item, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) FindLine(ctx context.Context, userID, productID string, variantID *string) (*Item, error) {
	for _, item := range r.items {
		if item.UserID != userID || item.ProductID != productID {
			continue
		}
		if (item.VariantID == nil) != (variantID == nil) {
			continue
		}
		if item.VariantID != nil && *item.VariantID != *variantID {
			continue
		}
		return &item, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) Insert(ctx context.Context, item Item) error {
	r.items[item.ID] = item
	return nil
}

func (r *memoryRepo) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	item, ok := r.items[itemID]
	if !ok || item.UserID != userID {
		return shared.ErrNotFound
	}
	item.Quantity = quantity
	r.items[itemID] = item
	return nil
}

func (r *memoryRepo) Remove(ctx context.Context, userID, itemID string) error {
	item, ok := r.items[itemID]
	if !ok || item.UserID != userID {
		return shared.ErrNotFound
	}
	delete(r.items, itemID)
	return nil
}

func (r *memoryRepo) Clear(ctx context.Context, userID string) error {
	for id, item := range r.items {
		if item.UserID == userID {
			delete(r.items, id)
		}
	}
	return nil
}

type fakeCatalog struct {
	products map[string]*products.Product
}

func (c *fakeCatalog) Get(ctx context.Context, id string) (*products.Product, error) {
	if p, ok := c.products[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func newTestService() (*Service, *memoryRepo) {
	catalog := &fakeCatalog{products: map[string]*products.Product{
		"p1": {ID: "p1", Name: "Luffy Figure", Price: 150, IsActive: true, Stock: 10},
		"p2": {
			ID: "p2", Name: "Akatsuki Hoodie", Price: 200, IsActive: true, HasVariants: true,
			Variants: []products.Variant{{ID: "v1", ColorName: "Black", Size: "M", Stock: 5}},
		},
		"p3": {ID: "p3", Name: "Retired Item", Price: 50, IsActive: false},
	}}
	repo := newMemoryRepo()
	return NewService(repo, catalog), repo
}

func TestAddMergesSameLine(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	first, err := svc.Add(ctx, "u1", AddInput{ProductID: "p1", Quantity: 2})
	require.NoError(t, err)

	second, err := svc.Add(ctx, "u1", AddInput{ProductID: "p1", Quantity: 3})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 5, second.Quantity)
	require.Len(t, repo.items, 1)
}

func TestAddVariantDenormalizesNames(t *testing.T) {
	svc, _ := newTestService()
	variantID := "v1"

	item, err := svc.Add(context.Background(), "u1", AddInput{ProductID: "p2", VariantID: &variantID, Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, "Black", item.ColorName)
	require.Equal(t, "M", item.SizeName)
}

func TestAddRejectsMissingVariantSelection(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Add(context.Background(), "u1", AddInput{ProductID: "p2", Quantity: 1})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAddRejectsInactiveProduct(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Add(context.Background(), "u1", AddInput{ProductID: "p3", Quantity: 1})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpdateQuantityValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	item, err := svc.Add(ctx, "u1", AddInput{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)

	require.ErrorIs(t, svc.UpdateQuantity(ctx, "u1", item.ID, 0), httpx.ErrValidation)
	require.NoError(t, svc.UpdateQuantity(ctx, "u1", item.ID, 4))

	// Another user cannot touch the line.
	require.ErrorIs(t, svc.UpdateQuantity(ctx, "u2", item.ID, 1), shared.ErrNotFound)
}
