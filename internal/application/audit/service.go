// Package audit appends business events to the events collection.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/smarterp/internal/domain/audit"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/domain/trade"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultListLimit bounds List when the caller passes no limit
const DefaultListLimit = 50

// Actor identifies the user an event is attributed to
type Actor struct {
	ID   string
	Name string
}

// Service writes and reads audit events
type Service struct {
	events    shared.Repository[audit.Event]
	orders    shared.Repository[trade.Order]
	processed shared.IdempotencyStore
	cfg       shared.IdempotencyConfig
	now       func() time.Time
}

// NewService creates an audit service. processed guards LogOnce.
func NewService(events shared.Repository[audit.Event], orders shared.Repository[trade.Order], processed shared.IdempotencyStore) *Service {
	return &Service{
		events:    events,
		orders:    orders,
		processed: processed,
		cfg:       shared.DefaultIdempotencyConfig(),
		now:       time.Now,
	}
}

// Log stamps the event with the current time and appends it
func (s *Service) Log(ctx context.Context, ev audit.Event) (string, error) {
	if err := ev.Validate(); err != nil {
		return "", err
	}
	ev.Timestamp = s.now()

	id, err := s.events.Create(ctx, &ev)
	if err != nil {
		return "", err
	}
	logger.L(ctx).Debug("Audit event recorded",
		zap.String("event_id", id),
		zap.String("type", string(ev.Type)),
		zap.String("entity_id", ev.EntityID),
	)
	return id, nil
}

// LogOnce appends ev unless an event was already written under key.
// It reports whether this call wrote the event. When the write fails the
// key is released so a retry can succeed.
func (s *Service) LogOnce(ctx context.Context, key string, ev audit.Event) (bool, error) {
	fresh, err := s.processed.MarkProcessed(ctx, key, s.cfg.TTL)
	if err != nil {
		return false, fmt.Errorf("audit key %s: %w", key, err)
	}
	if !fresh {
		logger.L(ctx).Info("Audit event already recorded", zap.String("key", key))
		return false, nil
	}

	if _, err := s.Log(ctx, ev); err != nil {
		if uerr := s.processed.Unmark(ctx, key); uerr != nil {
			logger.L(ctx).Error("Failed to release audit key",
				zap.String("key", key),
				zap.Error(uerr),
			)
		}
		return false, err
	}
	return true, nil
}

// OrderCreatedKey is the LogOnce key of an order's orderCreated event
func OrderCreatedKey(orderID string) string {
	return "orderCreated:" + orderID
}

// OrderCreatedEvent builds the orderCreated event for a stored order
func OrderCreatedEvent(order *trade.Order, actor Actor) audit.Event {
	return audit.Event{
		Type:        audit.EventOrderCreated,
		EntityType:  audit.EntityOrder,
		EntityID:    order.ID,
		UserID:      actor.ID,
		UserName:    actor.Name,
		Description: fmt.Sprintf("New order created: %s - %s - ₺%s",
			order.OrderNumber, order.CustomerName, decimal.NewFromFloat(order.Total).StringFixed(2)),
		Metadata: map[string]any{
			"orderNumber": order.OrderNumber,
			"customerId":  order.CustomerID,
			"total":       order.Total,
			"itemCount":   order.ItemCount(),
		},
	}
}

// RecordOrderCreated writes the orderCreated event of order at most once
func (s *Service) RecordOrderCreated(ctx context.Context, order *trade.Order, actor Actor) (bool, error) {
	return s.LogOnce(ctx, OrderCreatedKey(order.ID), OrderCreatedEvent(order, actor))
}

// ReplayOrderCreated rebuilds the orderCreated event from the stored order
// and writes it if it was never recorded. The events collection is checked
// first, so an expired or lost idempotency mark does not cause a duplicate.
func (s *Service) ReplayOrderCreated(ctx context.Context, orderID string, actor Actor) (bool, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return false, err
	}
	if order == nil {
		return false, shared.ErrNotFound
	}
	recorded, err := s.hasEvent(ctx, orderID, audit.EventOrderCreated)
	if err != nil {
		return false, err
	}
	if recorded {
		logger.L(ctx).Info("Audit event already recorded", zap.String("order_id", orderID))
		return false, nil
	}
	if actor.ID == "" {
		actor = Actor{ID: order.CreatedBy}
	}
	written, err := s.RecordOrderCreated(ctx, order, actor)
	if err != nil {
		return false, err
	}
	if written {
		logger.L(ctx).Info("Replayed orderCreated audit event", zap.String("order_id", orderID))
	}
	return written, nil
}

// List returns at most limit events, newest first
func (s *Service) List(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.events.GetAll(ctx, shared.NewQuery().OrderBy("timestamp", shared.Desc).Limit(limit))
}

// ListForEntity returns the events about one record, newest first
func (s *Service) ListForEntity(ctx context.Context, entityID string) ([]audit.Event, error) {
	return s.events.GetAll(ctx, shared.NewQuery().
		Where("entityId", shared.OpEqual, entityID).
		OrderBy("timestamp", shared.Desc))
}

// hasEvent reports whether an event of type typ about entityID is stored
func (s *Service) hasEvent(ctx context.Context, entityID string, typ audit.EventType) (bool, error) {
	found, err := s.events.GetAll(ctx, shared.NewQuery().
		Where("entityId", shared.OpEqual, entityID).
		Where("type", shared.OpEqual, string(typ)).
		Limit(1))
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}
