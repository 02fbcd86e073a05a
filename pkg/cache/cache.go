// Package cache provides the cross-run layout cache backends.
//
// The engine's hot caches (row geometry, thumbnails) are purely in-memory
// and owned by their packages. This package is the optional layer behind
// them: computed layouts serialized as JSON and keyed by gallery
// fingerprint plus geometry, so a later process run (or another replica
// behind the same Redis) skips the solve entirely.
//
// Backends:
//   - FileCache: per-user cache directory, for CLI usage
//   - RedisCache: shared cache for server deployments
//   - NullCache: disables caching without branching at call sites
package cache

import (
	"context"
	"time"
)

// TTLLayout is the default lifetime for cached layouts. Layouts are keyed
// by gallery fingerprint, so staleness only matters when a fingerprint
// collides across edits; the TTL bounds how long such an entry can live.
const TTLLayout = 7 * 24 * time.Hour

// TTLThumb is the default lifetime for cached encoded thumbnails. Image
// IDs derive from paths, not content, so edits in place can go stale;
// the shorter TTL bounds the window.
const TTLThumb = 24 * time.Hour

// Cache is a TTL'd byte store.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a miss;
// errors are reserved for backend failures. All implementations must be
// safe for concurrent use or document otherwise.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NullCache is a no-op Cache: every Get misses, every Set is discarded.
// Used when caching is disabled so callers never branch on nil.
type NullCache struct{}

// NewNullCache creates a no-op cache.
func NewNullCache() Cache { return &NullCache{} }

// Get always returns a miss.
func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the data.
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete does nothing.
func (*NullCache) Delete(context.Context, string) error { return nil }

// Close does nothing.
func (*NullCache) Close() error { return nil }

// Ensure NullCache implements Cache.
var _ Cache = (*NullCache)(nil)
