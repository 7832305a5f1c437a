package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/qdclab/booking-api/internal/catalog"
)

type countingLister struct {
	calls int
	tests []catalog.TestDefinition
}

func (c *countingLister) ListTests(context.Context) ([]catalog.TestDefinition, error) {
	c.calls++
	return c.tests, nil
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestListUsesCache(t *testing.T) {
	lister := &countingLister{tests: []catalog.TestDefinition{
		{ID: 1, Name: "CBC", Price: 500},
		{ID: 2, Name: "X-Ray", Price: 1200},
	}}
	svc := &catalog.Service{
		Source: lister,
		Cache:  catalog.NewCache(newRedis(t), time.Minute),
	}
	ctx := context.Background()

	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, lister.calls, "second read must come from cache")
}

func TestListWithoutCache(t *testing.T) {
	lister := &countingLister{tests: []catalog.TestDefinition{{ID: 1, Name: "CBC", Price: 500}}}
	svc := &catalog.Service{Source: lister}
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)
	_, err = svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, lister.calls)
}

func TestGet(t *testing.T) {
	lister := &countingLister{tests: []catalog.TestDefinition{
		{ID: 1, Name: "CBC", Price: 500},
	}}
	svc := &catalog.Service{Source: lister}
	ctx := context.Background()

	test, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "CBC", test.Name)

	_, err = svc.Get(ctx, 42)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestRefreshInvalidatesCache(t *testing.T) {
	lister := &countingLister{tests: []catalog.TestDefinition{{ID: 1, Name: "CBC", Price: 500}}}
	svc := &catalog.Service{
		Source: lister,
		Cache:  catalog.NewCache(newRedis(t), time.Minute),
	}
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Refresh(ctx))
	_, err = svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, lister.calls)
}
