// Package ratelimit implements a fixed-window per-tenant rate limiter
// over Redis. It guards against request bursts; monthly accounting is
// the quota ledger's job.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter limits requests per tenant per minute window
type RateLimiter struct {
	client *redis.Client
	limit  int
}

// New creates a RateLimiter
func New(client *redis.Client, requestsPerMinute int) *RateLimiter {
	return &RateLimiter{client: client, limit: requestsPerMinute}
}

// Allow reports whether the tenant may proceed in the current window.
// The counter increment is atomic in Redis; the first increment of a
// window arms its expiry.
func (rl *RateLimiter) Allow(ctx context.Context, tenantID string) (bool, error) {
	if rl.limit <= 0 {
		return true, nil
	}

	key := fmt.Sprintf("ratelimit:tenant:%s:%s", tenantID, time.Now().UTC().Format("2006-01-02-15-04"))

	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}

	if count == 1 {
		rl.client.Expire(ctx, key, time.Minute)
	}

	return count <= int64(rl.limit), nil
}

// Close closes the Redis connection
func (rl *RateLimiter) Close() error {
	return rl.client.Close()
}
