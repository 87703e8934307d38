package orders

import (
	"context"
	"fmt"

	"github.com/hikari-shop/hikari/internal/platform/httpx"
	"github.com/hikari-shop/hikari/internal/shared"
)

// Service wraps order business rules and authorization.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns one order; regular users may only read their own.
func (s *Service) Get(ctx context.Context, caller *shared.Identity, id string) (*Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin && order.UserID != caller.UserID {
		return nil, httpx.ErrForbidden
	}
	return order, nil
}

// List returns orders; regular users are scoped to their own records.
func (s *Service) List(ctx context.Context, caller *shared.Identity, filter ListFilter) ([]Order, int, error) {
	if !caller.IsAdmin {
		filter.UserID = caller.UserID
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %s", httpx.ErrValidation, *filter.Status)
	}
	return s.repo.List(ctx, filter)
}

// UpdateStatus applies an admin status transition and tracking info.
func (s *Service) UpdateStatus(ctx context.Context, id string, update StatusUpdate) (*Order, error) {
	if !update.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %s", httpx.ErrValidation, update.Status)
	}
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: use the cancel operation to cancel an order", httpx.ErrValidation)
	}
	if !order.Status.CanTransitionTo(update.Status) {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", httpx.ErrConflict, order.Status, update.Status)
	}
	if err := s.repo.UpdateStatus(ctx, id, update); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Cancel cancels a pre-shipment order and restores its stock. Allowed for
// the owning user or an admin.
func (s *Service) Cancel(ctx context.Context, caller *shared.Identity, id string) (*Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin && order.UserID != caller.UserID {
		return nil, httpx.ErrForbidden
	}
	if order.Status != StatusPending && order.Status != StatusProcessing {
		return nil, fmt.Errorf("%w: order in status %s cannot be cancelled", httpx.ErrConflict, order.Status)
	}
	if err := s.repo.CancelAndRestock(ctx, order); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}
