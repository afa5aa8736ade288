package delivery

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/time-capsule/pkg/redis"
)

// Locker serializes sweeps across scheduler replicas.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

const defaultLockKey = "sweep:lock"

// RedisLocker holds a SETNX key with a TTL. The TTL bounds how long a
// crashed holder can block other replicas. Each instance writes its own
// token and only removes the key while it still owns it.
type RedisLocker struct {
	redis redis.RedisAdapter
	key   string
	ttl   time.Duration
	token []byte
}

func NewRedisLocker(adapter redis.RedisAdapter, key string, ttl time.Duration) *RedisLocker {
	if key == "" {
		key = defaultLockKey
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLocker{
		redis: adapter,
		key:   key,
		ttl:   ttl,
		token: []byte(uuid.NewString()),
	}
}

func (l *RedisLocker) TryLock(ctx context.Context) (bool, error) {
	return l.redis.SetNX(ctx, l.key, l.token, l.ttl)
}

func (l *RedisLocker) Unlock(ctx context.Context) error {
	_, err := l.redis.DelIfEquals(ctx, l.key, l.token)
	return err
}
