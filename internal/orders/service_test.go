package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hikari-shop/hikari/internal/platform/httpx"
	"github.com/hikari-shop/hikari/internal/shared"
)

type memoryRepo struct {
	orders       map[string]*Order
	productStock map[string]int
	variantStock map[string]int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orders:       make(map[string]*Order),
		productStock: make(map[string]int),
		variantStock: make(map[string]int),
	}
}

func (r *memoryRepo) Get(ctx context.Context, id string) (*Order, error) {
	if o, ok := r.orders[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	var list []Order
	for _, o := range r.orders {
		if filter.UserID != "" && o.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		list = append(list, *o)
	}
	return list, len(list), nil
}

func (r *memoryRepo) UpdateStatus(ctx context.Context, id string, update StatusUpdate) error {
	o, ok := r.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	o.Status = update.Status
	if update.TrackingNumber != nil {
		o.TrackingNumber = update.TrackingNumber
	}
	return nil
}

func (r *memoryRepo) CancelAndRestock(ctx context.Context, order *Order) error {
	o, ok := r.orders[order.ID]
	if !ok || (o.Status != StatusPending && o.Status != StatusProcessing) {
		return shared.ErrNotFound
	}
	o.Status = StatusCancelled
	for _, item := range order.Items {
		if item.VariantID != nil {
			r.variantStock[*item.VariantID] += item.Quantity
		} else {
			r.productStock[item.ProductID] += item.Quantity
		}
	}
	return nil
}

var (
	owner    = &shared.Identity{UserID: "u1"}
	stranger = &shared.Identity{UserID: "u2"}
	admin    = &shared.Identity{UserID: "boss", IsAdmin: true}
)

func seedOrder(repo *memoryRepo, status Status) *Order {
	variantID := "v1"
	o := &Order{
		ID:     "o1",
		UserID: "u1",
		Status: status,
		Items: []Item{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", VariantID: &variantID, Quantity: 3},
		},
	}
	repo.orders[o.ID] = o
	return o
}

func TestGetEnforcesOwnership(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo, StatusPending)
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Get(ctx, stranger, "o1")
	require.ErrorIs(t, err, httpx.ErrForbidden)

	got, err := svc.Get(ctx, owner, "o1")
	require.NoError(t, err)
	require.Equal(t, "o1", got.ID)

	got, err = svc.Get(ctx, admin, "o1")
	require.NoError(t, err)
	require.Equal(t, "o1", got.ID)
}

func TestListScopesRegularUsers(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo, StatusPending)
	svc := NewService(repo)
	ctx := context.Background()

	list, total, err := svc.List(ctx, stranger, ListFilter{})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, list)

	_, total, err = svc.List(ctx, admin, ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestCancelRestoresStockVariantAware(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo, StatusProcessing)
	svc := NewService(repo)

	cancelled, err := svc.Cancel(context.Background(), owner, "o1")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Equal(t, 2, repo.productStock["p1"])
	require.Equal(t, 3, repo.variantStock["v1"])
}

func TestCancelRejectedAfterShipment(t *testing.T) {
	for _, status := range []Status{StatusShipped, StatusDelivered} {
		repo := newMemoryRepo()
		seedOrder(repo, status)
		svc := NewService(repo)

		_, err := svc.Cancel(context.Background(), admin, "o1")
		require.ErrorIs(t, err, httpx.ErrConflict, "status %s", status)
		require.Empty(t, repo.productStock)
		require.Empty(t, repo.variantStock)
	}
}

func TestCancelForbiddenForStrangers(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo, StatusPending)
	svc := NewService(repo)

	_, err := svc.Cancel(context.Background(), stranger, "o1")
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestStatusTransitions(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo, StatusPending)
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, "o1", StatusUpdate{Status: StatusDelivered})
	require.ErrorIs(t, err, httpx.ErrConflict)

	updated, err := svc.UpdateStatus(ctx, "o1", StatusUpdate{Status: StatusProcessing})
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, updated.Status)

	tracking := "TRK-1234"
	updated, err = svc.UpdateStatus(ctx, "o1", StatusUpdate{Status: StatusShipped, TrackingNumber: &tracking})
	require.NoError(t, err)
	require.Equal(t, StatusShipped, updated.Status)
	require.Equal(t, &tracking, updated.TrackingNumber)

	_, err = svc.UpdateStatus(ctx, "o1", StatusUpdate{Status: StatusCancelled})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.UpdateStatus(ctx, "o1", StatusUpdate{Status: Status("BOGUS")})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
