// Package repository defines data access interfaces for Stockroom.
package repository

import (
	"context"
	"time"
)

// Cache defines the interface for small read-through caches.
// Stockroom uses it to memoize userId->username lookups during product
// log resolution. Implemented by the in-memory cache and by Redis.
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrCacheMiss if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL. If ttl is 0, the value doesn't expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
