package cache

import "context"

// Provider is a key-value cache with TTL-based eviction configured at
// construction. Concurrent Get/Set on the same key is last-write-wins.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}
