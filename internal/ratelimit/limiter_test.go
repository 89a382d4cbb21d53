package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLimiter(client, "reset", limit, window), mr
}

func TestLimiterFixedWindow(t *testing.T) {
	l, mr := newTestLimiter(t, 2, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "a@x.io"))
	require.NoError(t, l.Allow(ctx, "a@x.io"))
	assert.ErrorIs(t, l.Allow(ctx, "a@x.io"), ErrLimited)

	// other keys are counted separately
	assert.NoError(t, l.Allow(ctx, "b@x.io"))

	assert.Equal(t, time.Minute, mr.TTL("reset:a@x.io"))
	mr.FastForward(time.Minute + time.Second)
	assert.NoError(t, l.Allow(ctx, "a@x.io"))
}

func TestLimiterReset(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "k"))
	require.ErrorIs(t, l.Allow(ctx, "k"), ErrLimited)
	require.NoError(t, l.Reset(ctx, "k"))
	assert.NoError(t, l.Allow(ctx, "k"))
}

func TestLimiterUnavailable(t *testing.T) {
	l, mr := newTestLimiter(t, 1, time.Minute)
	mr.SetError("ERR simulated outage")

	err := l.Allow(context.Background(), "k")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrLimited)
}

func TestLimiterArmsExpiryWithFirstHit(t *testing.T) {
	l, mr := newTestLimiter(t, 3, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "k"))
	assert.Equal(t, 30*time.Second, mr.TTL("reset:k"))

	// later hits keep the original window
	mr.FastForward(10 * time.Second)
	require.NoError(t, l.Allow(ctx, "k"))
	assert.Equal(t, 20*time.Second, mr.TTL("reset:k"))
}

func TestLimiterRepairsCounterWithoutExpiry(t *testing.T) {
	l, mr := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	// a counter left behind without a TTL
	require.NoError(t, mr.Set("reset:k", "5"))
	assert.Zero(t, mr.TTL("reset:k"))

	assert.ErrorIs(t, l.Allow(ctx, "k"), ErrLimited)
	assert.Equal(t, time.Minute, mr.TTL("reset:k"))

	mr.FastForward(time.Minute + time.Second)
	assert.NoError(t, l.Allow(ctx, "k"))
}
