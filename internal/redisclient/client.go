package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// RememberIdempotencyKey stores the venta id served for an
// Idempotency-Key so retries can return the original result.
func (c *Client) RememberIdempotencyKey(ctx context.Context, key string, ventaID int64, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), ventaID, ttl).Err()
}

// LookupIdempotencyKey returns the venta id previously stored for an
// Idempotency-Key, or found=false when the key is unseen.
func (c *Client) LookupIdempotencyKey(ctx context.Context, key string) (ventaID int64, found bool, err error) {
	ventaID, err = c.rdb.Get(ctx, fmt.Sprintf("idempotency:%s", key)).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return ventaID, true, nil
}

// AcquireImportLock takes the per-creator import lock. Returns false
// when another import by the same creator is already running.
func (c *Client) AcquireImportLock(ctx context.Context, creadorID int64, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:import:%d", creadorID), "1", ttl).Result()
}

// ReleaseImportLock releases the per-creator import lock.
func (c *Client) ReleaseImportLock(ctx context.Context, creadorID int64) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:import:%d", creadorID)).Err()
}
