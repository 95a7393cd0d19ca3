package inflight

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"duoadmin/pkg/logger"
)

const keyPrefix = "duoadmin:inflight:"

// RedisGuard shares claims between instances through redis locks. A claim
// expires after ttl if its holder dies without releasing it.
type RedisGuard struct {
	client *redis.Client
	locker *redislock.Client
	ttl    time.Duration
}

// NewRedisGuard connects to addr and verifies the connection.
func NewRedisGuard(ctx context.Context, addr string, db int, ttl time.Duration) (*RedisGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       db,
		PoolSize: 20,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisGuardWithClient(client, ttl), nil
}

// NewRedisGuardWithClient wraps an existing client.
func NewRedisGuardWithClient(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisGuard{client: client, locker: redislock.New(client), ttl: ttl}
}

// Acquire claims key without waiting.
func (g *RedisGuard) Acquire(ctx context.Context, key string) (release func(), err error) {
	lock, err := g.locker.Obtain(ctx, keyPrefix+key, g.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, busyError(key)
	}
	if err != nil {
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				logger.Warn("Failed to release in-flight lock", zap.String("key", key), zap.Error(err))
			}
		})
	}, nil
}

// Close closes the redis client.
func (g *RedisGuard) Close() error {
	return g.client.Close()
}

// Ping checks the redis connection.
func (g *RedisGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}
