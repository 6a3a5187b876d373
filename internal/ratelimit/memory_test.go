package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestMemoryLimiter(t *testing.T, perMinute int) (*MemoryLimiter, *fakeClock) {
	t.Helper()
	l, err := NewMemoryLimiter(perMinute)
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l.now = clock.now
	return l, clock
}

func TestNewMemoryLimiter_InvalidLimit(t *testing.T) {
	t.Parallel()

	_, err := NewMemoryLimiter(0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestMemoryLimiter_Allow(t *testing.T) {
	t.Parallel()

	l, _ := newTestMemoryLimiter(t, 100)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		res, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		require.True(t, res.Allowed, "request %d", i+1)
		assert.Equal(t, 100, res.Limit)
	}

	res, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed, "101st request within a minute is rejected")
	assert.Equal(t, 0, res.Remaining)
	assert.InDelta(t, float64(600*time.Millisecond), float64(res.RetryAfter), float64(time.Millisecond))

	other, err := l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "clients have separate budgets")
}

func TestMemoryLimiter_Refills(t *testing.T) {
	t.Parallel()

	l, clock := newTestMemoryLimiter(t, 60)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		_, err := l.Allow(ctx, "a")
		require.NoError(t, err)
	}
	res, _ := l.Allow(ctx, "a")
	require.False(t, res.Allowed)

	clock.t = clock.t.Add(time.Second)
	res, _ = l.Allow(ctx, "a")
	assert.True(t, res.Allowed, "one token per second comes back")

	clock.t = clock.t.Add(time.Minute)
	res, _ = l.Allow(ctx, "a")
	assert.True(t, res.Allowed)
	assert.Equal(t, 59, res.Remaining)
}

func TestMemoryLimiter_ForgetsIdleClients(t *testing.T) {
	t.Parallel()

	l, clock := newTestMemoryLimiter(t, 10)
	ctx := context.Background()

	_, _ = l.Allow(ctx, "a")
	_, _ = l.Allow(ctx, "b")
	assert.Equal(t, 2, l.clients())

	clock.t = clock.t.Add(idleTTL + time.Minute)
	_, _ = l.Allow(ctx, "c")
	assert.Equal(t, 1, l.clients())
}
