package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterWindow(t *testing.T) {
	limiter := NewMemoryLimiter(Config{Limit: 5, Window: 50 * time.Millisecond})
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		ok, err := limiter.Allow(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("unexpected error on attempt %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("attempt %d should be allowed", i)
		}
	}

	ok, err := limiter.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("sixth attempt within the window should be blocked")
	}

	// A different caller has its own window.
	ok, _ = limiter.Allow(ctx, "10.0.0.2")
	if !ok {
		t.Error("different key should not share a window")
	}

	// After the window expires the caller is allowed again.
	time.Sleep(60 * time.Millisecond)
	ok, _ = limiter.Allow(ctx, "10.0.0.1")
	if !ok {
		t.Error("attempt after window expiry should be allowed")
	}
}
