package cache

import (
	"context"
	"strings"
	"time"
)

// Cache fronts read-heavy listing endpoints (shops, services, dashboard
// stats). Implementations must treat a miss as (nil, false, nil), not an
// error, so handlers can fall through to the database.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Key joins key segments with the ":" separator used across the codebase,
// e.g. Key("services", "shop", shopID).
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// NoopCache is the fallback when Redis is not configured; every read is a
// miss and writes are discarded.
type NoopCache struct{}

func NewNoop() *NoopCache {
	return &NoopCache{}
}

func (n *NoopCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (n *NoopCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (n *NoopCache) Delete(ctx context.Context, key string) error {
	return nil
}
