package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hikari-shop/hikari/internal/catalog/products"
	"github.com/hikari-shop/hikari/internal/platform/httpx"
	"github.com/hikari-shop/hikari/internal/shared"
)

// ProductReader is the slice of the catalog the cart needs.
type ProductReader interface {
	Get(ctx context.Context, id string) (*products.Product, error)
}

// Service wraps cart business rules.
type Service struct {
	repo    Repository
	catalog ProductReader
}

// NewService constructs a Service.
func NewService(repo Repository, catalog ProductReader) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// List returns the user's cart lines.
func (s *Service) List(ctx context.Context, userID string) ([]Item, error) {
	return s.repo.ListByUser(ctx, userID)
}

// AddInput describes a line to add to the cart.
type AddInput struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id,omitempty"`
	Quantity  int     `json:"quantity"`
}

// Add puts a product (or variant) line into the cart, merging quantities
// when the same product/variant is already present.
func (s *Service) Add(ctx context.Context, userID string, input AddInput) (*Item, error) {
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", httpx.ErrValidation)
	}

	product, err := s.catalog.Get(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %s", httpx.ErrNotFound, input.ProductID)
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, fmt.Errorf("%w: product %s is not available", httpx.ErrNotFound, input.ProductID)
	}

	var colorName, sizeName string
	if product.HasVariants {
		if input.VariantID == nil {
			return nil, fmt.Errorf("%w: variant selection is required", httpx.ErrValidation)
		}
		variant := product.VariantByID(*input.VariantID)
		if variant == nil {
			return nil, fmt.Errorf("%w: variant %s", httpx.ErrNotFound, *input.VariantID)
		}
		colorName = variant.ColorName
		sizeName = variant.Size
	} else {
		input.VariantID = nil
	}

	existing, err := s.repo.FindLine(ctx, userID, input.ProductID, input.VariantID)
	if err == nil {
		merged := existing.Quantity + input.Quantity
		if err := s.repo.UpdateQuantity(ctx, userID, existing.ID, merged); err != nil {
			return nil, err
		}
		existing.Quantity = merged
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	item := Item{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: input.ProductID,
		VariantID: input.VariantID,
		Quantity:  input.Quantity,
		ColorName: colorName,
		SizeName:  sizeName,
	}
	if err := s.repo.Insert(ctx, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateQuantity sets a line's quantity.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", httpx.ErrValidation)
	}
	return s.repo.UpdateQuantity(ctx, userID, itemID, quantity)
}

// Remove deletes one line from the cart.
func (s *Service) Remove(ctx context.Context, userID, itemID string) error {
	return s.repo.Remove(ctx, userID, itemID)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.repo.Clear(ctx, userID)
}
