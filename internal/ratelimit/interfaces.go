// Package ratelimit provides fixed-window request limiting.
// It guards the login endpoint: each caller gets a fixed number of
// attempts per window, counted per client key (normally the IP address).
package ratelimit

import (
	"context"
	"time"
)

// Limiter counts attempts per key in a fixed window.
type Limiter interface {
	// Allow records one attempt for key and reports whether it is within
	// the limit. The first attempt of a window starts the window clock.
	// Implementations fail open on infrastructure errors: a limiter
	// outage must not lock every caller out.
	Allow(ctx context.Context, key string) (bool, error)
}

// Config holds limiter settings.
type Config struct {
	// Limit is the number of allowed attempts per window.
	Limit int

	// Window is the window length.
	Window time.Duration
}

// DefaultConfig matches the login policy: 5 attempts per minute.
func DefaultConfig() Config {
	return Config{
		Limit:  5,
		Window: time.Minute,
	}
}
