package replay

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, "idem:"), mr
}

// expiringClient drops the key just before it is read back, as if its TTL ran out
// between the reservation attempt and the read.
type expiringClient struct {
	redis.Cmdable
	mr *miniredis.Miniredis
}

func (e expiringClient) Get(ctx context.Context, key string) *redis.StringCmd {
	e.mr.Del(key)
	return e.Cmdable.Get(ctx, key)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	resp := Response{Status: http.StatusCreated, ContentType: "application/json", Body: []byte(`{"ok":true}`)}

	t.Run("first reservation wins", func(t *testing.T) {
		cache, mr := newRedisCache(t)

		stored, reserved, err := cache.Reserve(ctx, "k1", time.Minute)
		require.NoError(t, err)
		assert.Nil(t, stored)
		assert.True(t, reserved)

		value, err := mr.Get("idem:k1")
		require.NoError(t, err)
		assert.Equal(t, pendingMarker, value)

		stored, reserved, err = cache.Reserve(ctx, "k1", time.Minute)
		require.NoError(t, err)
		assert.Nil(t, stored)
		assert.False(t, reserved)
	})

	t.Run("completed responses are replayed", func(t *testing.T) {
		cache, _ := newRedisCache(t)

		_, reserved, err := cache.Reserve(ctx, "k1", time.Minute)
		require.NoError(t, err)
		require.True(t, reserved)
		require.NoError(t, cache.Complete(ctx, "k1", resp, time.Minute))

		stored, reserved, err := cache.Reserve(ctx, "k1", time.Minute)
		require.NoError(t, err)
		assert.False(t, reserved)
		require.NotNil(t, stored)
		assert.Equal(t, resp, *stored)
	})

	t.Run("released keys can be reserved again", func(t *testing.T) {
		cache, mr := newRedisCache(t)

		_, reserved, err := cache.Reserve(ctx, "k1", time.Minute)
		require.NoError(t, err)
		require.True(t, reserved)
		require.NoError(t, cache.Release(ctx, "k1"))
		assert.False(t, mr.Exists("idem:k1"))

		_, reserved, err = cache.Reserve(ctx, "k1", time.Minute)
		require.NoError(t, err)
		assert.True(t, reserved)
	})

	t.Run("entries expire", func(t *testing.T) {
		cache, mr := newRedisCache(t)

		require.NoError(t, cache.Complete(ctx, "k1", resp, time.Minute))
		mr.FastForward(time.Minute)

		stored, reserved, err := cache.Reserve(ctx, "k1", time.Minute)
		require.NoError(t, err)
		assert.Nil(t, stored)
		assert.True(t, reserved)
	})

	t.Run("key vanishing before the read is not an error", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		cache := NewRedisCache(expiringClient{Cmdable: client, mr: mr}, "idem:")

		require.NoError(t, mr.Set("idem:k1", pendingMarker))

		stored, reserved, err := cache.Reserve(ctx, "k1", time.Minute)
		require.NoError(t, err)
		assert.Nil(t, stored)
		assert.False(t, reserved)
	})

	t.Run("corrupt entries surface an error", func(t *testing.T) {
		cache, mr := newRedisCache(t)
		require.NoError(t, mr.Set("idem:k1", "garbage"))

		_, _, err := cache.Reserve(ctx, "k1", time.Minute)
		assert.ErrorContains(t, err, "decode")
	})

	t.Run("unreachable server", func(t *testing.T) {
		cache, mr := newRedisCache(t)
		mr.Close()

		_, _, err := cache.Reserve(ctx, "k1", time.Minute)
		assert.Error(t, err)
	})
}
