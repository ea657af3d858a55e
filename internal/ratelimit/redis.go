package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisLimiter implements Limiter with a Redis INCR + EXPIRE fixed window,
// shared across all server instances.
type RedisLimiter struct {
	client *redis.Client
	cfg    Config
	prefix string
	logger zerolog.Logger
}

// NewRedisLimiter creates a new Redis-backed limiter.
func NewRedisLimiter(client *redis.Client, cfg Config, prefix string, logger zerolog.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		cfg:    cfg,
		prefix: prefix,
		logger: logger.With().Str("component", "ratelimit").Logger(),
	}
}

// Allow records one attempt for key. The first INCR of a window also sets
// the window TTL. Fails open on Redis errors.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	rkey := fmt.Sprintf("%s:%s", l.prefix, key)

	count, err := l.client.Incr(ctx, rkey).Result()
	if err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("limiter unavailable, failing open")
		return true, nil
	}

	if count == 1 {
		if err := l.client.Expire(ctx, rkey, l.cfg.Window).Err(); err != nil {
			l.logger.Warn().Err(err).Str("key", key).Msg("failed to set limiter window TTL")
		}
	}

	return count <= int64(l.cfg.Limit), nil
}

// Ensure RedisLimiter implements Limiter.
var _ Limiter = (*RedisLimiter)(nil)
