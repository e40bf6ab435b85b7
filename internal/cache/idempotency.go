package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisIdempotencyStore keeps short-lived in-flight locks and long-lived
// key to result mappings. A lock left by a crashed process expires after
// lockTTL.
type RedisIdempotencyStore struct {
	rdb     *redis.Client
	lockTTL time.Duration
	ttl     time.Duration
}

const defaultLockTTL = 30 * time.Second

func NewRedisIdempotencyStore(rdb *redis.Client, lockTTL, ttl time.Duration) *RedisIdempotencyStore {
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &RedisIdempotencyStore{rdb: rdb, lockTTL: lockTTL, ttl: ttl}
}

func (s *RedisIdempotencyStore) TryLock(ctx context.Context, scope, key string) (bool, error) {
	return s.rdb.SetNX(ctx, lockKey(scope, key), "1", s.lockTTL).Result()
}

func (s *RedisIdempotencyStore) Unlock(ctx context.Context, scope, key string) error {
	return s.rdb.Del(ctx, lockKey(scope, key)).Err()
}

func (s *RedisIdempotencyStore) Remember(ctx context.Context, scope, key, value string) error {
	return s.rdb.Set(ctx, mapKey(scope, key), value, s.ttl).Err()
}

func (s *RedisIdempotencyStore) Recall(ctx context.Context, scope, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, mapKey(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func lockKey(scope, key string) string {
	return "idemp:" + scope + ":" + key
}

func mapKey(scope, key string) string {
	return "idemp:map:" + scope + ":" + key
}

var _ IdempotencyStore = (*RedisIdempotencyStore)(nil)
