package cache

import (
	"context"
	"testing"
	"time"

	"github.com/21521147/book-hunter-project/internal/cart/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func sampleCart(userID string) *domain.Cart {
	return &domain.Cart{
		UserID: userID,
		Items: []domain.CartItem{
			{BookID: 1, Quantity: 2, AddedAt: time.Now().Truncate(time.Second)},
			{BookID: 3, Quantity: 1, AddedAt: time.Now().Truncate(time.Second)},
		},
	}
}

func TestRedisCache_SetAndGet(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	cart := sampleCart("user-1")
	require.NoError(t, c.Set(ctx, "user-1", cart))

	got, err := c.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, cart.UserID, got.UserID)
	require.Len(t, got.Items, 2)
	assert.Equal(t, int64(1), got.Items[0].BookID)
	assert.Equal(t, 3, got.TotalQuantity())
}

func TestRedisCache_MissOnUnknownUser(t *testing.T) {
	c, _ := setupCache(t)

	_, err := c.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Delete(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "user-1", sampleCart("user-1")))
	require.NoError(t, c.Delete(ctx, "user-1"))

	_, err := c.Get(ctx, "user-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_DeleteMissingKeyIsNoop(t *testing.T) {
	c, _ := setupCache(t)

	assert.NoError(t, c.Delete(context.Background(), "nobody"))
}

func TestRedisCache_EntryExpires(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "user-1", sampleCart("user-1")))

	// Base TTL plus maximum jitter.
	mr.FastForward(21 * time.Minute)

	_, err := c.Get(ctx, "user-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	c, mr := setupCache(t)

	require.NoError(t, mr.Set("cart:user-1", "not-json"))

	_, err := c.Get(context.Background(), "user-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
