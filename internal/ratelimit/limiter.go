package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter throttles write-path actions per key. Increment and check must be
// atomic so two concurrent requests from the same actor cannot both pass a
// check meant to admit only one.
type Limiter interface {
	// Allow records one attempt under key and reports whether it is within
	// limit for the current fixed window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RedisLimiter implements a fixed-window counter. INCR is atomic in Redis,
// so the count each caller observes includes its own attempt exactly once.
type RedisLimiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) Limiter {
	return &RedisLimiter{client: client}
}

const keyPrefix = "ratelimit:"

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	fullKey := keyPrefix + key

	// Pipeline: INCR + EXPIRE NX. ExpireNX only sets the TTL when the key
	// has none, so the window starts at the first attempt and is not
	// extended by later ones.
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}

	return incr.Val() <= int64(limit), nil
}
