package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/time-capsule/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr := miniredis.RunT(t)

	// Unique connection name per test to avoid the global adapter cache
	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func TestNewQueue(t *testing.T) {
	_, adapter := setupTestRedis(t)

	_, err := NewQueue(adapter, QueueConfig{})
	assert.Error(t, err)

	_, err = NewQueue(nil, QueueConfig{Name: "x"})
	assert.Error(t, err)

	q, err := NewQueue(adapter, QueueConfig{Name: "deliveries"})
	require.NoError(t, err)
	assert.Equal(t, "deliveries", q.Name())
}

func TestQueue_PublishJSON(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx := context.Background()

	q, err := NewQueue(adapter, QueueConfig{Name: "test:deliveries", MaxLen: 1000})
	require.NoError(t, err)

	id, err := q.PublishJSON(ctx, map[string]string{"message_id": "abc"}, map[string]string{"type": "text"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs, err := q.Read(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var body map[string]string
	require.NoError(t, json.Unmarshal(msgs[0].Data, &body))
	assert.Equal(t, "abc", body["message_id"])
	assert.Equal(t, "text", msgs[0].Metadata["type"])
	assert.Equal(t, id, msgs[0].ID)
	assert.False(t, msgs[0].Timestamp.IsZero())
}

func TestQueue_PublishJSON_MarshalError(t *testing.T) {
	_, adapter := setupTestRedis(t)
	q, err := NewQueue(adapter, QueueConfig{Name: "bad"})
	require.NoError(t, err)

	_, err = q.PublishJSON(context.Background(), make(chan int), nil)
	assert.Error(t, err)
}

func TestQueue_GetStats(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx := context.Background()

	q, err := NewQueue(adapter, QueueConfig{Name: "stats"})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := q.Publish(ctx, []byte("x"), nil)
		require.NoError(t, err)
	}

	stats, err := q.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalMessages)
}

func TestQueue_PublishFailsWhenRedisDown(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	q, err := NewQueue(adapter, QueueConfig{Name: "down"})
	require.NoError(t, err)

	mr.Close()
	_, err = q.Publish(context.Background(), []byte("x"), nil)
	assert.Error(t, err)
}
