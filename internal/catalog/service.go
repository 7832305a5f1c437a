package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/qdclab/booking-api/internal/obs"
	"github.com/qdclab/booking-api/internal/pricing"
)

// ErrNotFound indicates the requested test definition does not exist upstream.
var ErrNotFound = errors.New("test definition not found")

const cacheKeyTests = "catalog:tests"

// TestDefinition describes one orderable lab test. Prices are authored in the
// LIMS; this service only relays them.
type TestDefinition struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	Category string        `json:"category,omitempty"`
	Price    pricing.Money `json:"price"`
}

// Lister fetches the full test catalog from the upstream LIMS.
type Lister interface {
	ListTests(ctx context.Context) ([]TestDefinition, error)
}

// Service serves the test catalog for the booking screen, caching the upstream
// list in Redis. The catalog is small and changes rarely, so a single cached
// list is enough.
type Service struct {
	Source Lister
	Cache  *Cache
}

// List returns all orderable tests, preferring the cache.
func (s *Service) List(ctx context.Context) ([]TestDefinition, error) {
	if s == nil || s.Source == nil {
		return nil, errors.New("catalog service not configured")
	}
	var cached []TestDefinition
	if ok, err := s.Cache.GetJSON(ctx, cacheKeyTests, &cached); err == nil && ok {
		recordLookup("cache")
		return cached, nil
	}
	tests, err := s.Source.ListTests(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	recordLookup("upstream")
	_ = s.Cache.SetJSON(ctx, cacheKeyTests, tests)
	return tests, nil
}

// Get resolves a single test definition by id.
func (s *Service) Get(ctx context.Context, id int64) (TestDefinition, error) {
	tests, err := s.List(ctx)
	if err != nil {
		return TestDefinition{}, err
	}
	for _, test := range tests {
		if test.ID == id {
			return test, nil
		}
	}
	return TestDefinition{}, ErrNotFound
}

// Refresh drops the cached list so the next read hits the upstream.
func (s *Service) Refresh(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.Cache.Invalidate(ctx, cacheKeyTests)
}

func recordLookup(source string) {
	if obs.CatalogLookupsTotal != nil {
		obs.CatalogLookupsTotal.WithLabelValues(source).Inc()
	}
}
