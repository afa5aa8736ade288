package main

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/time-capsule/internal/config"
	"github.com/nimasrn/time-capsule/internal/delivery"
	"github.com/nimasrn/time-capsule/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotifier(t *testing.T) {
	t.Run("log by default", func(t *testing.T) {
		n, err := newNotifier(&config.Config{}, nil)
		require.NoError(t, err)
		assert.IsType(t, delivery.LogNotifier{}, n)
	})

	t.Run("webhook requires url", func(t *testing.T) {
		_, err := newNotifier(&config.Config{DeliveryChannel: "webhook"}, nil)
		assert.Error(t, err)

		n, err := newNotifier(&config.Config{DeliveryChannel: "webhook", DeliveryWebhookURL: "http://localhost:8081/deliveries"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "webhook", n.Name())
	})

	t.Run("stream", func(t *testing.T) {
		mr := miniredis.RunT(t)
		adapter := redis.Wrap("tc:", goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))

		n, err := newNotifier(&config.Config{DeliveryChannel: "stream", DeliveryStreamName: "deliveries"}, adapter)
		require.NoError(t, err)
		assert.Equal(t, "stream", n.Name())

		_, err = newNotifier(&config.Config{DeliveryChannel: "stream", DeliveryStreamName: "deliveries"}, nil)
		assert.Error(t, err)
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := newNotifier(&config.Config{DeliveryChannel: "carrier-pigeon"}, nil)
		assert.Error(t, err)
	})
}

func TestNeedsRedis(t *testing.T) {
	assert.False(t, needsRedis(&config.Config{DeliveryChannel: "log"}))
	assert.True(t, needsRedis(&config.Config{SweepLockEnabled: true}))
	assert.True(t, needsRedis(&config.Config{SweepGuardEnabled: true}))
	assert.True(t, needsRedis(&config.Config{DeliveryChannel: "stream"}))
}
