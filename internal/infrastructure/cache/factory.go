package cache

import (
	"context"
	"fmt"

	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/domain/trade"
	"github.com/erp/smarterp/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Factory builds the Redis-backed components, or their in-process
// counterparts when Redis is not configured or unreachable.
type Factory struct {
	cfg                   config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	client                *redis.Client
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis is tolerated.
// Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a factory for cfg
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		cfg:                   cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Connect dials Redis when configured. It returns a nil client, and no
// error, when running without Redis is acceptable.
func (f *Factory) Connect(ctx context.Context) (*redis.Client, error) {
	if f.client != nil {
		return f.client, nil
	}
	if !f.cfg.Enabled() {
		f.logger.Info("Redis not configured, using in-process idempotency and order numbering")
		return nil, nil
	}

	client, err := NewRedisClient(ctx, f.cfg)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-process stores. "+
			"Audit deduplication and order numbering are then local to this instance.",
			zap.String("addr", f.cfg.Addr()),
			zap.Error(err),
		)
		return nil, nil
	}
	f.client = client
	f.logger.Info("Connected to Redis", zap.String("addr", f.cfg.Addr()))
	return client, nil
}

// IdempotencyStore returns the Redis store when connected, otherwise an in-memory one
func (f *Factory) IdempotencyStore() shared.IdempotencyStore {
	if f.client != nil {
		return NewRedisIdempotencyStore(f.client, "")
	}
	return NewInMemoryIdempotencyStore()
}

// OrderNumbers returns the Redis sequence when connected, otherwise random numbering
func (f *Factory) OrderNumbers() trade.OrderNumberGenerator {
	if f.client != nil {
		return NewRedisOrderSequence(f.client, trade.RandomOrderNumbers{})
	}
	return trade.RandomOrderNumbers{}
}

// Close closes the Redis client if one was opened
func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}
