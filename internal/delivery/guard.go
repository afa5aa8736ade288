package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/nimasrn/time-capsule/pkg/redis"
)

// Guard remembers which messages were already handed to the notifier, so
// a message whose mark-delivered update failed is not notified again on
// the next sweep.
type Guard interface {
	Notified(ctx context.Context, messageID string) (bool, error)
	MarkNotified(ctx context.Context, messageID string) error
	Clear(ctx context.Context, messageID string) error
}

type GuardConfig struct {
	TTL       time.Duration
	KeyPrefix string
}

func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		TTL:       24 * time.Hour,
		KeyPrefix: "notified:",
	}
}

type RedisGuard struct {
	redis  redis.RedisAdapter
	config GuardConfig
}

func NewRedisGuard(adapter redis.RedisAdapter, config GuardConfig) *RedisGuard {
	def := DefaultGuardConfig()
	if config.TTL <= 0 {
		config.TTL = def.TTL
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = def.KeyPrefix
	}
	return &RedisGuard{redis: adapter, config: config}
}

func (g *RedisGuard) Notified(ctx context.Context, messageID string) (bool, error) {
	return g.redis.Exist(ctx, g.config.KeyPrefix+messageID)
}

func (g *RedisGuard) MarkNotified(ctx context.Context, messageID string) error {
	stamp := []byte(fmt.Sprintf("%d", time.Now().Unix()))
	if err := g.redis.Set(ctx, g.config.KeyPrefix+messageID, stamp, g.config.TTL); err != nil {
		return fmt.Errorf("failed to mark as notified: %w", err)
	}
	return nil
}

func (g *RedisGuard) Clear(ctx context.Context, messageID string) error {
	return g.redis.Del(ctx, g.config.KeyPrefix+messageID)
}
