package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hikari-shop/hikari/internal/platform/httpx"
)

// Service wraps catalog business rules for products.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List applies storefront filters.
func (s *Service) List(ctx context.Context, filter Filter) ([]Product, int, error) {
	return s.repo.List(ctx, filter)
}

// ListAdmin returns every product, newest first.
func (s *Service) ListAdmin(ctx context.Context) ([]Product, error) {
	return s.repo.ListAdmin(ctx)
}

// Get fetches one product with its images and variants.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, p Product) (*Product, error) {
	if err := s.normalize(&p); err != nil {
		return nil, err
	}
	p.ID = uuid.NewString()
	for i := range p.Images {
		p.Images[i].ID = uuid.NewString()
	}
	for i := range p.Variants {
		p.Variants[i].ID = uuid.NewString()
		p.Variants[i].ProductID = p.ID
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, p.ID)
}

// Update validates and stores product changes.
func (s *Service) Update(ctx context.Context, id string, p Product) (*Product, error) {
	if err := s.normalize(&p); err != nil {
		return nil, err
	}
	p.ID = id
	for i := range p.Images {
		if p.Images[i].ID == "" {
			p.Images[i].ID = uuid.NewString()
		}
	}
	for i := range p.Variants {
		if p.Variants[i].ID == "" {
			p.Variants[i].ID = uuid.NewString()
		}
		p.Variants[i].ProductID = id
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) normalize(p *Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("%w: product sku is required", httpx.ErrValidation)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", httpx.ErrValidation)
	}
	if p.SalePrice != nil && (*p.SalePrice < 0 || *p.SalePrice > p.Price) {
		return fmt.Errorf("%w: sale price must be between 0 and the list price", httpx.ErrValidation)
	}
	if p.CategoryID == "" {
		return fmt.Errorf("%w: category is required", httpx.ErrValidation)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}

	p.HasVariants = len(p.Variants) > 0
	seen := map[string]struct{}{}
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.Stock < 0 {
			return fmt.Errorf("%w: variant stock must not be negative", httpx.ErrValidation)
		}
		if v.SKU == "" {
			v.SKU = BuildVariantSKU(p.SKU, v.ColorCode, v.Size)
		}
		if _, dup := seen[v.SKU]; dup {
			return fmt.Errorf("%w: duplicate variant sku %s", httpx.ErrValidation, v.SKU)
		}
		seen[v.SKU] = struct{}{}
	}
	return nil
}
