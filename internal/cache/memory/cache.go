// Package memory provides an in-memory cache for single-node deployments.
// Values are not shared across process restarts or multiple instances.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/stockroom-io/stockroom/internal/repository"
)

// Cache implements repository.Cache with an in-process map.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// entry is one cached value.
type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// New creates a new in-memory cache and starts its cleanup loop.
func New() *Cache {
	c := &Cache{
		entries: make(map[string]entry),
	}

	go c.cleanupLoop()

	return c
}

// cleanupLoop periodically removes expired entries.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

// cleanup removes expired entries.
func (c *Cache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || (!e.expiresAt.IsZero() && time.Now().After(e.expiresAt)) {
		return nil, repository.ErrCacheMiss
	}

	return e.value, nil
}

// Set stores a value with a TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()

	return nil
}

// Delete removes a value by key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	return nil
}

// Ensure Cache implements repository.Cache.
var _ repository.Cache = (*Cache)(nil)
