// Package locks provides the distributed promotion lock backed by Redis.
package locks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/satheeshds/invoicing/billing"
)

// RedisLocker obtains short-lived locks through redislock.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

// Connect pings the Redis server at addr and returns a locker on it.
func Connect(ctx context.Context, addr string, ttl time.Duration) (*RedisLocker, *redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("pinging redis at %s: %w", addr, err)
	}
	slog.Info("redis connected", "address", addr)
	return New(rdb, ttl), rdb, nil
}

// New wraps an existing Redis client.
func New(rdb redislock.RedisClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl}
}

// Obtain takes the lock for key without waiting. It returns
// billing.ErrPromotionLocked when the key is held by someone else.
func (l *RedisLocker) Obtain(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, "lock:"+key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, billing.ErrPromotionLocked
	}
	if err != nil {
		return nil, fmt.Errorf("obtaining lock %s: %w", key, err)
	}
	return func() {
		// ctx may be cancelled by now.
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			slog.Warn("failed to release lock", "key", key, "error", err)
		}
	}, nil
}
