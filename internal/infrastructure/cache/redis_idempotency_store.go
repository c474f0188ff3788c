package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyPrefix = "smarterp:idempotency:"

// RedisIdempotencyStore keeps processed keys in Redis so every instance
// of the service sees the same set.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyStore creates a store on client. An empty prefix uses the default.
func NewRedisIdempotencyStore(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultIdempotencyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed sets the key with SETNX and reports whether it was new
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark %s as processed: %w", key, err)
	}
	return ok, nil
}

// IsProcessed checks if key has been marked
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	return n > 0, nil
}

// Unmark deletes key
func (s *RedisIdempotencyStore) Unmark(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to unmark %s: %w", key, err)
	}
	return nil
}

// Close is a no-op; the client is owned by the caller
func (s *RedisIdempotencyStore) Close() error {
	return nil
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
