package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistributedLock is the claim/lease used to make sure one process at a time
// works on a given settlement fingerprint (and that scheduled jobs run on a
// single node).
type DistributedLock interface {
	// Acquire tries to take the lock for ttl. Returns (false, nil) when the
	// lock is already held elsewhere.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops the lock.
	Release(ctx context.Context, key string) error
}

// RedisLock implements DistributedLock with SET NX EX.
type RedisLock struct {
	client *redis.Client
}

func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	success, err := l.client.SetNX(ctx, "lock:"+key, "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

func (l *RedisLock) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, "lock:"+key).Err()
}
