package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, RedisAdapter) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, Wrap("tc:", client)
}

func TestRedisAdapter_KeyOps(t *testing.T) {
	ctx := context.Background()
	mr, r := setupRedis(t)

	ok, err := r.SetNX(ctx, "lock", []byte("a"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("tc:lock"))

	ok, err = r.SetNX(ctx, "lock", []byte("b"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	val, err := r.Get(ctx, "lock")
	require.NoError(t, err)
	assert.Equal(t, "a", string(val))

	deleted, err := r.DelIfEquals(ctx, "lock", []byte("b"))
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = r.DelIfEquals(ctx, "lock", []byte("a"))
	require.NoError(t, err)
	assert.True(t, deleted)

	exists, err := r.Exist(ctx, "lock")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = r.Get(ctx, "lock")
	assert.ErrorIs(t, err, NilError)
}

func TestRedisAdapter_Stream(t *testing.T) {
	ctx := context.Background()
	_, r := setupRedis(t)

	for i := 0; i < 3; i++ {
		_, err := r.XAdd(ctx, "events", 0, map[string]interface{}{"n": i})
		require.NoError(t, err)
	}

	n, err := r.XLen(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	msgs, err := r.XRange(ctx, "events", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "0", msgs[0].Values["n"])
}

func TestNewRedisAdapter_Cached(t *testing.T) {
	mr := miniredis.RunT(t)
	a, err := NewRedisAdapter("cache-test", "", &Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	b, err := NewRedisAdapter("cache-test", "", &Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Same(t, a, GetRedis("cache-test"))
}
