package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/localnerve/homespace/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	c, err := NewRedisCache("redis://" + s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, s
}

func exerciseCache(t *testing.T, c Cache) {
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "k", []byte(`{"title":"Example"}`), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Example"}`, string(got))

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	assert.NoError(t, c.Ping(ctx))
}

func TestRedisCache(t *testing.T) {
	c, _ := setupTestRedis(t)
	exerciseCache(t, c)
	assert.Equal(t, "redis", c.Name())
}

func TestRedisCacheExpiry(t *testing.T) {
	c, s := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Second))
	assert.True(t, s.Exists(redisPrefix+"short"))

	s.FastForward(2 * time.Second)
	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	_, err := NewRedisCache("redis://" + addr)
	assert.Error(t, err)

	_, err = NewRedisCache("not a url")
	assert.Error(t, err)
}

func TestBadgerCache(t *testing.T) {
	c, err := NewBadgerCache(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	exerciseCache(t, c)
	assert.Equal(t, "badger", c.Name())
}

func TestBadgerCacheInMemory(t *testing.T) {
	c, err := NewBadgerCache("", nil)
	require.NoError(t, err)

	exerciseCache(t, c)
	require.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))
}

func TestNew(t *testing.T) {
	c, err := New(&config.Config{CacheType: "none"}, zap.NewNop())
	assert.NoError(t, err)
	assert.Nil(t, c)

	s := miniredis.RunT(t)
	c, err = New(&config.Config{CacheType: "redis", RedisURL: "redis://" + s.Addr()}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "redis", c.Name())
	c.Close()

	_, err = New(&config.Config{CacheType: "memcached"}, zap.NewNop())
	assert.Error(t, err)
}
