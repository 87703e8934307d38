package admin

import (
	"context"

	"golang.org/x/sync/singleflight"
)

const summaryCacheKey = "admin:dashboard:summary"

// Service serves dashboard aggregates through the cache, collapsing
// concurrent rebuilds into a single repository pass.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

// NewService constructs a Service.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Summary returns the dashboard aggregate, cached.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	resultChan := s.group.DoChan(summaryCacheKey, func() (interface{}, error) {
		var summary Summary
		err := s.cache.FetchJSON(ctx, summaryCacheKey, &summary, func(ctx context.Context) (interface{}, error) {
			return s.repo.Summary(ctx)
		})
		if err != nil {
			return nil, err
		}
		return &summary, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Summary), nil
	}
}

// Refresh drops the cached aggregate so the next read rebuilds it.
func (s *Service) Refresh(ctx context.Context) error {
	return s.cache.Invalidate(ctx, summaryCacheKey)
}
