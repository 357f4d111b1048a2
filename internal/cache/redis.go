package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cart-sync-api/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisCartCache stores one JSON-serialized cart per user in Redis
type RedisCartCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisCartCache connects to Redis and verifies the connection
func NewRedisCartCache(addr, password string, db int, logger *slog.Logger) (*RedisCartCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	logger.Info("Connected to redis cart cache", "addr", addr, "db", db)
	return &RedisCartCache{client: client, logger: logger}, nil
}

func cartKey(userID string) string {
	return "cart:" + userID
}

// Get retrieves the cached cart for a user. A missing key is not an
// error; only an unreachable store is.
func (c *RedisCartCache) Get(ctx context.Context, userID string) (*models.CartSnapshot, bool, error) {
	val, err := c.client.Get(ctx, cartKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cart from redis: %w", err)
	}

	var snapshot models.CartSnapshot
	if err := json.Unmarshal([]byte(val), &snapshot); err != nil {
		// A corrupt entry is treated as absent rather than failing reads.
		c.logger.Warn("Discarding unreadable cached cart", "user_id", userID, "error", err)
		return nil, false, nil
	}

	c.logger.Debug("Cart cache hit", "user_id", userID, "item_count", len(snapshot.Items))
	return &snapshot, true, nil
}

// Set overwrites the stored snapshot and resets its expiration countdown
func (c *RedisCartCache) Set(ctx context.Context, userID string, cart *models.CartSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	if err := c.client.Set(ctx, cartKey(userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cart to redis: %w", err)
	}

	c.logger.Debug("Cart cache set",
		"user_id", userID,
		"item_count", len(cart.Items),
		"ttl", ttl.String())
	return nil
}

// Delete removes the cached cart for a user
func (c *RedisCartCache) Delete(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart from redis: %w", err)
	}
	return nil
}

// Close releases the redis connection pool
func (c *RedisCartCache) Close() error {
	return c.client.Close()
}
