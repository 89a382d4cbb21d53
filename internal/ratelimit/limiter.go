package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLimited is returned once a key exceeds its quota for the current window.
var ErrLimited = errors.New("rate limited")

// ErrUnavailable wraps Redis failures so callers can decide to fail open.
var ErrUnavailable = errors.New("rate limiter unavailable")

// Limiter is a fixed-window counter stored in Redis.
type Limiter struct {
	redis  *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewLimiter allows limit hits per window for every key under prefix.
func NewLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{redis: client, prefix: prefix, limit: int64(limit), window: window}
}

func (l *Limiter) key(k string) string {
	return l.prefix + ":" + k
}

// hitScript increments KEYS[1] and arms its expiry in one step. A counter
// found without a TTL is re-armed so it cannot lock the key out for good.
var hitScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 or redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// Allow records one hit for k and reports ErrLimited once the quota is spent.
func (l *Limiter) Allow(ctx context.Context, k string) error {
	count, err := hitScript.Run(ctx, l.redis, []string{l.key(k)}, l.window.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count > l.limit {
		return ErrLimited
	}
	return nil
}

// Reset clears the counter for k.
func (l *Limiter) Reset(ctx context.Context, k string) error {
	if err := l.redis.Del(ctx, l.key(k)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
