package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kindling-app/kindling/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	admirerCountTTL = time.Hour
	otpTTL          = 5 * time.Minute
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

// KeyForAdmirerCount generates the key for a user's "who liked me" count.
func (c *RedisCache) KeyForAdmirerCount(userID uint64) string {
	return fmt.Sprintf("admirers:count:%d", userID)
}

func (c *RedisCache) SetAdmirerCount(ctx context.Context, userID uint64, count int64) error {
	// Always refresh TTL when updating
	return c.Client.Set(ctx, c.KeyForAdmirerCount(userID), count, admirerCountTTL).Err()
}

// GetAdmirerCount returns the cached count and whether it was a hit. TTL is
// refreshed on access.
func (c *RedisCache) GetAdmirerCount(ctx context.Context, userID uint64) (int64, bool, error) {
	key := c.KeyForAdmirerCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	_ = c.Client.Expire(ctx, key, admirerCountTTL).Err()
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

func (c *RedisCache) BumpAdmirerCount(ctx context.Context, userID uint64) {
	key := c.KeyForAdmirerCount(userID)
	_, _ = c.Client.Incr(ctx, key).Result()
	_ = c.Client.Expire(ctx, key, admirerCountTTL).Err()
}

// --- phone verification codes ---

func keyForOTP(phone string) string { return "otp:" + phone }

// StoreOTP keeps a one-time code for its verification window.
func (c *RedisCache) StoreOTP(ctx context.Context, phone, code string) error {
	return c.Client.Set(ctx, keyForOTP(phone), code, otpTTL).Err()
}

// CheckOTP compares the stored code and consumes it on success.
func (c *RedisCache) CheckOTP(ctx context.Context, phone, code string) (bool, error) {
	val, err := c.Client.Get(ctx, keyForOTP(phone)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if val != code {
		return false, nil
	}
	_ = c.Client.Del(ctx, keyForOTP(phone)).Err()
	return true, nil
}

// --- real-time fanout ---

// KeyForEvents is the pub/sub channel connected sessions of a user follow.
func KeyForEvents(userID uint64) string {
	return fmt.Sprintf("events:user:%d", userID)
}

// Publish pushes an event payload to a user's channel. Best-effort: the
// persisted state never depends on delivery.
func (c *RedisCache) Publish(ctx context.Context, userID uint64, payload []byte) error {
	return c.Client.Publish(ctx, KeyForEvents(userID), payload).Err()
}
