package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys of side effects that already happened
// so a retried write is applied at most once.
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL
	// Returns true if the key was newly marked, false if it was already processed
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Unmark releases a key so the guarded write can be retried
	Unmark(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for processed keys
	// Default: 24 hours
	TTL time.Duration
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL: 24 * time.Hour,
	}
}
