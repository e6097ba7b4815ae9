// Package redis caches product lookups in front of a slower source.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmehra2102/streetfood-connect/internal/catalog/domain"
)

type Source interface {
	Get(ctx context.Context, id string) (domain.Product, error)
}

// CachedSource serves products from Redis and falls back to the wrapped
// source on a miss. Redis failures degrade to the source; misses for unknown
// products are not cached.
type CachedSource struct {
	log    *slog.Logger
	rdb    *goredis.Client
	source Source
	ttl    time.Duration
}

func NewCachedSource(log *slog.Logger, rdb *goredis.Client, source Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		log:    log.With("component", "catalog-cache"),
		rdb:    rdb,
		source: source,
		ttl:    ttl,
	}
}

func key(id string) string { return "product:" + id }

func (c *CachedSource) Get(ctx context.Context, id string) (domain.Product, error) {
	raw, err := c.rdb.Get(ctx, key(id)).Bytes()
	switch {
	case err == nil:
		var p domain.Product
		if err := json.Unmarshal(raw, &p); err == nil {
			return p, nil
		}
		c.log.Warn("bad cached product", "product_id", id)
	case !errors.Is(err, goredis.Nil):
		c.log.Warn("product cache read failed", "product_id", id, "err", err)
	}

	p, err := c.source.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if raw, err := json.Marshal(p); err == nil {
		if err := c.rdb.Set(ctx, key(id), raw, c.ttl).Err(); err != nil {
			c.log.Warn("product cache write failed", "product_id", id, "err", err)
		}
	}
	return p, nil
}

// Invalidate drops a cached product.
func (c *CachedSource) Invalidate(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, key(id)).Err()
}
