// Package cache holds the Redis-backed components of the service: the
// idempotency store guarding audit writes and the order number sequence.
// Each has an in-process counterpart used when Redis is not configured.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/smarterp/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
