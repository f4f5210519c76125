package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/crushconnect/internal/config"
)

// AdmirerCountTTL is how long a cached admirer count stays valid without access.
const AdmirerCountTTL = time.Hour

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

func (c *RedisCache) Close() error {
	return c.Client.Close()
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

// KeyForAdmirerCount generates Redis key for a user's admirer count
func (c *RedisCache) KeyForAdmirerCount(userID uint64) string {
	return fmt.Sprintf("likes:count:%d", userID)
}

func (c *RedisCache) SetAdmirerCount(ctx context.Context, userID uint64, count int64) error {
	// Always refresh TTL when updating
	return c.Client.Set(ctx, c.KeyForAdmirerCount(userID), count, AdmirerCountTTL).Err()
}

// GetAdmirerCount returns the cached count. ok=false on a cache miss.
func (c *RedisCache) GetAdmirerCount(ctx context.Context, userID uint64) (count int64, ok bool, err error) {
	key := c.KeyForAdmirerCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // corrupt value counts as a miss
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, AdmirerCountTTL).Err()
	return n, true, nil
}

// InvalidateAdmirerCount drops the cached count so the next read hits the DB.
func (c *RedisCache) InvalidateAdmirerCount(ctx context.Context, userID uint64) error {
	return c.Client.Del(ctx, c.KeyForAdmirerCount(userID)).Err()
}
