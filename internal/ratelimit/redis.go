package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// windowLayout names one-minute windows, e.g. 202401021504.
const windowLayout = "200601021504"

// RedisLimiter counts requests per client in fixed one-minute windows
// stored in Redis, so several server instances share one budget.
type RedisLimiter struct {
	client    redis.Cmdable
	perMinute int
	prefix    string
	now       func() time.Time
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a limiter backed by client.
func NewRedisLimiter(client redis.Cmdable, perMinute int) (*RedisLimiter, error) {
	if perMinute <= 0 {
		return nil, ErrInvalidLimit
	}
	return &RedisLimiter{
		client:    client,
		perMinute: perMinute,
		prefix:    "rl",
		now:       time.Now,
	}, nil
}

// Allow increments the client's counter for the current window.
func (l *RedisLimiter) Allow(ctx context.Context, clientID string) (Result, error) {
	now := l.now().UTC()
	window := now.Truncate(time.Minute)
	key := fmt.Sprintf("%s:%s:%s", l.prefix, clientID, window.Format(windowLayout))

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		// Two windows of TTL so a late request never resets a live counter.
		pipe.Expire(ctx, key, 2*time.Minute)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("rate limit counter: %w", err)
	}

	count := int(incr.Val())
	res := Result{
		Allowed:   count <= l.perMinute,
		Remaining: max(l.perMinute-count, 0),
		Limit:     l.perMinute,
	}
	if !res.Allowed {
		res.RetryAfter = window.Add(time.Minute).Sub(now)
	}
	return res, nil
}
