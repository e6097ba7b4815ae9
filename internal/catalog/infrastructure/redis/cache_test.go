package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/streetfood-connect/internal/catalog/domain"
)

type countingSource struct {
	products map[string]domain.Product
	calls    int
}

func (s *countingSource) Get(_ context.Context, id string) (domain.Product, error) {
	s.calls++
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func newCache(t *testing.T) (*CachedSource, *countingSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	src := &countingSource{products: map[string]domain.Product{
		"P1": {ID: "P1", SupplierID: "S1", Name: "Onions", Unit: "kg", PriceCents: 4000, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCachedSource(log, rdb, src, time.Minute), src, mr
}

func TestCachedSourceHitsSourceOnce(t *testing.T) {
	cache, src, mr := newCache(t)
	ctx := context.Background()

	first, err := cache.Get(ctx, "P1")
	require.NoError(t, err)
	second, err := cache.Get(ctx, "P1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.calls)
	assert.True(t, mr.Exists("product:P1"))
	assert.Equal(t, time.Minute, mr.TTL("product:P1"))
}

func TestCachedSourceUnknownProductNotCached(t *testing.T) {
	cache, src, mr := newCache(t)
	ctx := context.Background()

	_, err := cache.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	_, err = cache.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Equal(t, 2, src.calls)
	assert.False(t, mr.Exists("product:nope"))
}

func TestCachedSourceFallsBackWhenRedisDown(t *testing.T) {
	cache, src, mr := newCache(t)
	mr.Close()

	p, err := cache.Get(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, "S1", p.SupplierID)
	assert.Equal(t, 1, src.calls)
}

func TestInvalidate(t *testing.T) {
	cache, src, _ := newCache(t)
	ctx := context.Background()
	_, err := cache.Get(ctx, "P1")
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, "P1"))
	_, err = cache.Get(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}
