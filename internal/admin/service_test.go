package admin

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	calls   int
	summary Summary
}

func (r *countingRepo) Summary(ctx context.Context) (*Summary, error) {
	r.calls++
	copied := r.summary
	return &copied, nil
}

func newTestService(t *testing.T) (*Service, *countingRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := &countingRepo{summary: Summary{
		TotalRevenue:  255,
		TotalSales:    1,
		TotalUsers:    2,
		TotalProducts: 3,
		PendingOrders: 1,
	}}
	return NewService(repo, NewCache(client, time.Minute)), repo, mr
}

func TestSummaryIsCached(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 255.0, first.TotalRevenue)
	require.Equal(t, 1, repo.calls)

	second, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, first.TotalSales, second.TotalSales)
	require.Equal(t, 1, repo.calls, "second read must come from cache")
}

func TestSummaryRebuildsAfterTTL(t *testing.T) {
	svc, repo, mr := newTestService(t)
	ctx := context.Background()

	_, err := svc.Summary(ctx)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}

func TestRefreshInvalidates(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Refresh(ctx))

	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}
