// Package cache stores serialized analysis results.
//
// An analysis is a pure function of the snapshot and the engine options, so
// its result can be reused whenever both hash to the same key. The [Keyer]
// derives those keys; [Cache] implementations store the bytes:
//
//   - [NullCache] never stores anything (caching disabled)
//   - [FileCache] keeps entries under a local directory for the CLI
//   - [RedisCache] shares entries between processes through Redis
//
// Entries carry a TTL; expired entries read as misses.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is the lifetime of a cached analysis.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte store with expiring entries.
type Cache interface {
	// Get returns the value for key. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// NullCache is a Cache that never stores anything.
type NullCache struct{}

// NewNullCache returns a disabled cache.
func NewNullCache() Cache { return NullCache{} }

// Get always misses.
func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards data.
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete does nothing.
func (NullCache) Delete(context.Context, string) error { return nil }

// Close does nothing.
func (NullCache) Close() error { return nil }

var _ Cache = NullCache{}
