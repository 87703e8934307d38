package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hikari-shop/hikari/internal/platform/httpx"
)

// Service wraps category business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListPublic returns active categories in storefront order.
func (s *Service) ListPublic(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx, true)
}

// ListAll returns every category for the back-office.
func (s *Service) ListAll(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx, false)
}

// Get fetches one category.
func (s *Service) Get(ctx context.Context, id string) (*Category, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new category, deriving the slug when absent.
func (s *Service) Create(ctx context.Context, c Category) (*Category, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("%w: category name is required", httpx.ErrValidation)
	}
	c.ID = uuid.NewString()
	if strings.TrimSpace(c.Slug) == "" {
		c.Slug = Slugify(c.Name)
	}
	if c.Slug == "" {
		return nil, fmt.Errorf("%w: could not derive slug from name", httpx.ErrValidation)
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, c.ID)
}

// Update validates and stores category changes.
func (s *Service) Update(ctx context.Context, id string, c Category) (*Category, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("%w: category name is required", httpx.ErrValidation)
	}
	c.ID = id
	if strings.TrimSpace(c.Slug) == "" {
		c.Slug = Slugify(c.Name)
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a category.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
