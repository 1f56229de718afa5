package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const locatorKeyPrefix = "reviews:product-collection:"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient creates a new Redis client and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// RedisLocatorCache remembers which product collection holds a product id.
// Errors are logged and reported as cache misses.
type RedisLocatorCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisLocatorCache(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *RedisLocatorCache {
	return &RedisLocatorCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisLocatorCache) Get(ctx context.Context, productID string) (string, bool) {
	collection, err := c.client.Get(ctx, locatorKeyPrefix+productID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		c.logger.Warn("locator cache read failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return "", false
	}
	return collection, true
}

func (c *RedisLocatorCache) Set(ctx context.Context, productID, collection string) {
	if err := c.client.Set(ctx, locatorKeyPrefix+productID, collection, c.ttl).Err(); err != nil {
		c.logger.Warn("locator cache write failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}
