// Package cache holds the serialized /api/products response between
// transactions, so catalog refreshes after every sale do not rebuild the
// payload from the store each time.
package cache

import (
	"context"
	"time"
)

// ProductsKey is the cache key for the catalog response body.
const ProductsKey = "products"

// Cache stores opaque response payloads. Implementations: Redis and Noop.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Noop is the Cache used when no Redis is configured: every Get misses.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Noop) Invalidate(context.Context, string) error { return nil }
