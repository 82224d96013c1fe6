package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/victoralfred/userdir/internal/domain/ratelimit"
)

const rateLimitKeyPrefix = "rate_limit:"

// slidingWindow trims expired entries, then admits the request if the window has room.
// Returns {allowed, count, remaining, oldest_ms}.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local window_start = tonumber(ARGV[1])
	local now = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local current = redis.call('ZCARD', key)

	if current < limit then
		redis.call('ZADD', key, now, member)
		redis.call('EXPIRE', key, ttl)
		return {1, current + 1, limit - current - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local oldest_ms = now
	if #oldest > 0 then
		oldest_ms = tonumber(oldest[2])
	end
	return {0, current, 0, oldest_ms}
`)

// RateLimiter implements ratelimit.Limiter with a Redis sorted set per key
type RateLimiter struct {
	client *redis.Client
	now    func() time.Time
}

// NewRateLimiter creates a new Redis rate limiter
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{
		client: client,
		now:    time.Now,
	}
}

// Check records one request for key and reports whether it is inside limit
func (r *RateLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*ratelimit.Result, error) {
	now := r.now()
	nowMs := now.UnixMilli()
	ttlSeconds := int(window.Seconds()) + 1

	res, err := slidingWindow.Run(ctx, r.client,
		[]string{rateLimitKeyPrefix + key},
		now.Add(-window).UnixMilli(), nowMs, limit, ttlSeconds, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(res) != 4 {
		return nil, fmt.Errorf("unexpected rate limiter reply of %d values", len(res))
	}

	result := &ratelimit.Result{
		Allowed:   res[0] == 1,
		Limit:     limit,
		Remaining: int(res[2]),
		ResetTime: now.Add(window),
	}
	if !result.Allowed {
		result.ResetTime = time.UnixMilli(res[3]).Add(window)
		result.RetryAfter = max(0, result.ResetTime.Sub(now))
	}
	return result, nil
}

// Reset resets the rate limit for a key
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, rateLimitKeyPrefix+key).Err()
}
