package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter implements Limiter using in-process counters.
// This is suitable for single-node deployments; counters are NOT shared
// across process restarts or multiple instances.
type MemoryLimiter struct {
	cfg     Config
	mu      sync.Mutex
	windows map[string]*window
}

// window is one caller's current counting window.
type window struct {
	count     int
	expiresAt time.Time
}

// NewMemoryLimiter creates a new in-memory limiter.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	ml := &MemoryLimiter{
		cfg:     cfg,
		windows: make(map[string]*window),
	}

	// Expired windows are also dropped lazily on access; the loop just
	// keeps the map from accumulating one entry per caller ever seen.
	go ml.cleanupLoop()

	return ml
}

// cleanupLoop periodically removes expired windows.
func (m *MemoryLimiter) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.cleanup()
	}
}

// cleanup removes expired windows.
func (m *MemoryLimiter) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, w := range m.windows {
		if now.After(w.expiresAt) {
			delete(m.windows, key)
		}
	}
}

// Allow records one attempt for key.
func (m *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	w, ok := m.windows[key]
	if !ok || now.After(w.expiresAt) {
		m.windows[key] = &window{count: 1, expiresAt: now.Add(m.cfg.Window)}
		return m.cfg.Limit >= 1, nil
	}

	w.count++
	return w.count <= m.cfg.Limit, nil
}

// Ensure MemoryLimiter implements Limiter.
var _ Limiter = (*MemoryLimiter)(nil)
