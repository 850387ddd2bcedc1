package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// CountCache holds the delivering-orders badge count per user.
type CountCache interface {
	GetCount(ctx context.Context, userID string) (int, error)
	SetCount(ctx context.Context, userID string, n int) error
	Invalidate(ctx context.Context, userID string) error
}

type RedisCountCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCountCache(client *redis.Client) *RedisCountCache {
	return &RedisCountCache{client: client, ttl: time.Minute}
}

func (r *RedisCountCache) GetCount(ctx context.Context, userID string) (int, error) {
	val, err := r.client.Get(ctx, countKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrCacheMiss
	}
	if err != nil {
		return 0, fmt.Errorf("redis get failed: %w", err)
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parse cached count: %w", err)
	}
	return n, nil
}

func (r *RedisCountCache) SetCount(ctx context.Context, userID string, n int) error {
	if err := r.client.Set(ctx, countKey(userID), n, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCountCache) Invalidate(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, countKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func countKey(userID string) string {
	return fmt.Sprintf("orders:delivering:%s", userID)
}
