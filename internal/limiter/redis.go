package limiter

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a limiter that keeps failure counters and blocks as expiring keys.
type Redis struct {
	rdb    redis.Cmdable
	policy Policy
	prefix string
}

// NewRedis constructs a Redis-backed limiter. Keys are namespaced by prefix.
func NewRedis(rdb redis.Cmdable, p Policy, prefix string) *Redis {
	if prefix == "" {
		prefix = "taskmgr:login"
	}
	return &Redis{rdb: rdb, policy: p.normalized(), prefix: prefix}
}

func (l *Redis) keys(username string, ipHash []byte) (fails, block string) {
	suffix := username + ":" + hex.EncodeToString(ipHash)
	return l.prefix + ":fail:" + suffix, l.prefix + ":block:" + suffix
}

// Allow reports whether a block key is present and how long it remains.
func (l *Redis) Allow(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	_, block := l.keys(username, ipHash)
	ttl, err := l.rdb.PTTL(ctx, block).Result()
	if err != nil {
		return false, 0, err
	}
	// -2: no key, -1: key without expiry (never written by us, treat as absent)
	if ttl <= 0 {
		return true, 0, nil
	}
	return false, ttl, nil
}

// Success drops both the counter and any block.
func (l *Redis) Success(ctx context.Context, username string, ipHash []byte) error {
	fails, block := l.keys(username, ipHash)
	return l.rdb.Del(ctx, fails, block).Err()
}

// Failure increments the windowed counter and sets a block once MaxFails is reached.
func (l *Redis) Failure(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	fails, block := l.keys(username, ipHash)

	// the window starts at the first failure; later ones must not extend it
	var incr *redis.IntCmd
	if _, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, fails)
		p.ExpireNX(ctx, fails, l.policy.Window)
		return nil
	}); err != nil {
		return false, 0, err
	}
	if incr.Val() < int64(l.policy.MaxFails) {
		return false, 0, nil
	}

	if err := l.rdb.Set(ctx, block, 1, l.policy.BlockFor).Err(); err != nil {
		return false, 0, err
	}
	if err := l.rdb.Del(ctx, fails).Err(); err != nil {
		return false, 0, err
	}
	return true, l.policy.BlockFor, nil
}
