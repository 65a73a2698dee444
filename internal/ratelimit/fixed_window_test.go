package ratelimit

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int) (*FixedWindowLimiter, *miniredis.Miniredis, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter, err := NewFixedWindowLimiter(client, "test:ratelimit", limit, time.Minute)
	require.NoError(t, err)
	now := time.Date(2026, 1, 1, 12, 0, 10, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	return limiter, mr, &now
}

func TestFixedWindowLimiter(t *testing.T) {
	ctx := context.Background()
	limiter, _, now := newTestLimiter(t, 2)

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should pass", i+1)
	}
	ok, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok, "third request should be blocked")

	ok, err = limiter.Allow(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, ok, "keys are counted separately")

	*now = now.Add(time.Minute)
	ok, err = limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok, "next window starts fresh")
}

func TestFixedWindowLimiterSetsExpiry(t *testing.T) {
	limiter, mr, now := newTestLimiter(t, 5)
	_, err := limiter.Allow(context.Background(), "user-1")
	require.NoError(t, err)

	slot := now.UnixMilli() / time.Minute.Milliseconds()
	key := "test:ratelimit:user-1:" + strconv.FormatInt(slot, 10)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))
}

func TestFixedWindowLimiterRedisDown(t *testing.T) {
	limiter, mr, _ := newTestLimiter(t, 1)
	mr.Close()

	ok, err := limiter.Allow(context.Background(), "user-1")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestFixedWindowLimiterValidation(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	_, err := NewFixedWindowLimiter(client, "", 0, time.Minute)
	assert.Error(t, err)
	_, err = NewFixedWindowLimiter(client, "", 1, 0)
	assert.Error(t, err)
	_, err = NewFixedWindowLimiter(nil, "", 1, time.Minute)
	assert.Error(t, err)

	l, err := NewFixedWindowLimiter(client, " ", 3, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "hookcraft:ratelimit", l.prefix)
	assert.Equal(t, 3, l.Limit())
}
