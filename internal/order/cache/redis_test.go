package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) (*RedisCountCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCountCache(client), mr
}

func TestCountCache_SetAndGet(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetCount(ctx, "user-1", 3))

	n, err := c.GetCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCountCache_Miss(t *testing.T) {
	c, _ := setupCache(t)

	_, err := c.GetCount(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCountCache_Invalidate(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetCount(ctx, "user-1", 2))
	require.NoError(t, c.Invalidate(ctx, "user-1"))

	_, err := c.GetCount(ctx, "user-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCountCache_Expires(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetCount(ctx, "user-1", 1))
	mr.FastForward(2 * time.Minute)

	_, err := c.GetCount(ctx, "user-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
