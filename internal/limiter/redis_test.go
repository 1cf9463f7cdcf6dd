package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisLimiter(t *testing.T, p Policy) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb, p, "test"), mr
}

func TestRedis_BlocksAfterMaxFails(t *testing.T) {
	l, _ := newRedisLimiter(t, Policy{Window: time.Minute, MaxFails: 3, BlockFor: 5 * time.Minute})
	ctx := context.Background()
	ip := HashIP("10.0.0.1:5555")

	for i := 1; i < 3; i++ {
		blocked, _, err := l.Failure(ctx, "alice", ip)
		require.NoError(t, err)
		require.False(t, blocked, "attempt %d", i)
	}
	ok, _, err := l.Allow(ctx, "alice", ip)
	require.NoError(t, err)
	require.True(t, ok)

	blocked, dur, err := l.Failure(ctx, "alice", ip)
	require.NoError(t, err)
	require.True(t, blocked)
	require.Equal(t, 5*time.Minute, dur)

	ok, retry, err := l.Allow(ctx, "alice", ip)
	require.NoError(t, err)
	require.False(t, ok)
	require.Greater(t, retry, time.Duration(0))

	// other address is unaffected
	ok, _, err = l.Allow(ctx, "alice", HashIP("10.0.0.2:1"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedis_BlockExpires(t *testing.T) {
	l, mr := newRedisLimiter(t, Policy{Window: time.Minute, MaxFails: 1, BlockFor: time.Minute})
	ctx := context.Background()
	ip := HashIP("ip")

	blocked, _, err := l.Failure(ctx, "bob", ip)
	require.NoError(t, err)
	require.True(t, blocked)

	mr.FastForward(2 * time.Minute)

	ok, _, err := l.Allow(ctx, "bob", ip)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedis_WindowResetsCounter(t *testing.T) {
	l, mr := newRedisLimiter(t, Policy{Window: time.Minute, MaxFails: 2, BlockFor: time.Minute})
	ctx := context.Background()
	ip := HashIP("ip")

	blocked, _, err := l.Failure(ctx, "carol", ip)
	require.NoError(t, err)
	require.False(t, blocked)

	mr.FastForward(2 * time.Minute)

	blocked, _, err = l.Failure(ctx, "carol", ip)
	require.NoError(t, err)
	require.False(t, blocked, "old failure must have expired with the window")
}

func TestRedis_FailCounterAlwaysExpires(t *testing.T) {
	l, mr := newRedisLimiter(t, Policy{Window: time.Minute, MaxFails: 5, BlockFor: time.Minute})
	ctx := context.Background()
	ip := HashIP("ip")
	fails, _ := l.keys("frank", ip)

	_, _, err := l.Failure(ctx, "frank", ip)
	require.NoError(t, err)
	require.Equal(t, time.Minute, mr.TTL(fails))

	mr.FastForward(40 * time.Second)
	_, _, err = l.Failure(ctx, "frank", ip)
	require.NoError(t, err)
	require.Equal(t, 20*time.Second, mr.TTL(fails), "later failures must not extend the window")

	got, err := mr.Get(fails)
	require.NoError(t, err)
	require.Equal(t, "2", got)

	mr.FastForward(21 * time.Second)
	require.False(t, mr.Exists(fails))
}

func TestRedis_SuccessResets(t *testing.T) {
	l, mr := newRedisLimiter(t, Policy{Window: time.Minute, MaxFails: 2, BlockFor: time.Minute})
	ctx := context.Background()
	ip := HashIP("ip")

	_, _, err := l.Failure(ctx, "dave", ip)
	require.NoError(t, err)
	require.NoError(t, l.Success(ctx, "dave", ip))

	fails, block := l.keys("dave", ip)
	require.False(t, mr.Exists(fails))
	require.False(t, mr.Exists(block))
}

func TestRedis_ErrorsPropagate(t *testing.T) {
	l, mr := newRedisLimiter(t, DefaultPolicy())
	mr.Close()
	ctx := context.Background()

	_, _, err := l.Allow(ctx, "eve", HashIP("ip"))
	require.Error(t, err)
	_, _, err = l.Failure(ctx, "eve", HashIP("ip"))
	require.Error(t, err)
}
