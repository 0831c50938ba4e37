package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studybuddy/studybuddy/internal/config"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.Client.Incr(ctx, key).Result()
}

func (c *RedisCache) Decr(ctx context.Context, key string) (int64, error) {
	return c.Client.Decr(ctx, key).Result()
}

// KeyForPendingCount generates the Redis key for a user's count of
// incoming pending swipes (the badge on the requests tab).
func (c *RedisCache) KeyForPendingCount(userID uint64) string {
	return fmt.Sprintf("swipes:pending:%d", userID)
}

// DecrPendingCount decrements the badge only while the counter key is
// live. A decrement against an expired or absent key would recreate it
// at -1 and the negative value would then be served as a cache hit.
func (c *RedisCache) DecrPendingCount(ctx context.Context, userID uint64) error {
	key := c.KeyForPendingCount(userID)
	n, err := c.Client.Exists(ctx, key).Result()
	if err != nil || n == 0 {
		return err
	}
	if err := c.Client.Decr(ctx, key).Err(); err != nil {
		return err
	}
	return c.Client.Expire(ctx, key, time.Hour).Err()
}

func (c *RedisCache) UpdatePendingCount(ctx context.Context, userID uint64, count int64) error {
	key := c.KeyForPendingCount(userID)
	// Always refresh TTL when updating
	return c.Client.Set(ctx, key, count, time.Hour).Err()
}

func (c *RedisCache) GetPendingCount(ctx context.Context, userID uint64) (int64, bool, error) {
	key := c.KeyForPendingCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, time.Hour).Err()
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}
