package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/erp/smarterp/internal/domain/trade"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const orderSeqPrefix = "smarterp:order_seq:"

// RedisOrderSequence numbers orders from a per-year INCR counter, so numbers
// are unique across instances. When Redis fails it falls back to the given
// generator rather than blocking order creation.
type RedisOrderSequence struct {
	client   *redis.Client
	fallback trade.OrderNumberGenerator
}

// NewRedisOrderSequence creates a sequence on client. A nil fallback uses random numbers.
func NewRedisOrderSequence(client *redis.Client, fallback trade.OrderNumberGenerator) *RedisOrderSequence {
	if fallback == nil {
		fallback = trade.RandomOrderNumbers{}
	}
	return &RedisOrderSequence{client: client, fallback: fallback}
}

// Next increments the counter for now's year
func (s *RedisOrderSequence) Next(ctx context.Context, now time.Time) (string, error) {
	key := orderSeqPrefix + strconv.Itoa(now.Year())
	seq, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		logger.L(ctx).Warn("Order sequence unavailable, using fallback numbering",
			zap.String("key", key),
			zap.Error(err),
		)
		n, ferr := s.fallback.Next(ctx, now)
		if ferr != nil {
			return "", fmt.Errorf("order sequence: %w", ferr)
		}
		return n, nil
	}
	return trade.FormatOrderNumber(now.Year(), seq), nil
}

var _ trade.OrderNumberGenerator = (*RedisOrderSequence)(nil)
