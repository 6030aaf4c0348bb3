package redis

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Qhawe-ma/predd/internal/domain"
)

//go:embed scripts/sliding_window.lua
var slidingWindowLua string

// keyPrefix namespaces limiter keys so trade counters never collide with
// cache entries on a shared Redis.
const keyPrefix = "predd:ratelimit:"

// RateLimiter enforces a sliding-window limit per key. The window lives in a
// Redis sorted set of request timestamps, pruned and counted atomically by a
// Lua script so concurrent trade submissions cannot race past the limit.
type RateLimiter struct {
	rdb    *redis.Client
	script *redis.Script
}

// NewRateLimiter creates a RateLimiter backed by the given Client.
func NewRateLimiter(c *Client) *RateLimiter {
	return &RateLimiter{
		rdb:    c.Underlying(),
		script: redis.NewScript(slidingWindowLua),
	}
}

// Allow records a request for key and reports whether it fits inside the
// window. A denied request is not recorded, so it does not extend the caller's
// lockout. The script returns {allowed, count}; timestamps are microseconds.
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now().UnixMicro()
	reply, err := l.script.Run(ctx, l.rdb,
		[]string{keyPrefix + key},
		now, window.Microseconds(), limit,
	).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("redis: rate limit allow %s: %w", key, err)
	}
	if len(reply) < 2 {
		return false, fmt.Errorf("redis: rate limit allow %s: short script reply (%d values)", key, len(reply))
	}
	return reply[0] == 1, nil
}

// Compile-time interface check.
var _ domain.RateLimiter = (*RateLimiter)(nil)
