// Package event provides the in-process domain event bus. Order events
// flow through it to keep the application state in step with the store.
package event

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ErrBusStopped is returned by Publish after Stop
var ErrBusStopped = errors.New("event bus stopped")

// InMemoryEventBus dispatches events synchronously to registered handlers
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	stopped  atomic.Bool
}

// NewInMemoryEventBus creates a bus. A nil logger disables bus lifecycle logs.
func NewInMemoryEventBus(log *zap.Logger) *InMemoryEventBus {
	if log == nil {
		log = zap.NewNop()
	}
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   log,
	}
}

// Publish hands each event to every matching handler. A failing or
// panicking handler does not stop delivery to the others; all handler
// failures are returned joined.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.stopped.Load() {
		return ErrBusStopped
	}

	var errs []error
	for _, ev := range events {
		for _, h := range b.registry.Handlers(ev.EventType()) {
			if err := b.dispatch(ctx, h, ev); err != nil {
				logger.L(ctx).Error("Event handler failed",
					zap.String("event_type", ev.EventType()),
					zap.String("event_id", ev.EventID().String()),
					zap.String("aggregate_id", ev.AggregateID()),
					zap.Error(err),
				)
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers handler for eventTypes, defaulting to handler.EventTypes()
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("Event handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start enables publishing
func (b *InMemoryEventBus) Start(context.Context) error {
	b.stopped.Store(false)
	b.logger.Info("Event bus started")
	return nil
}

// Stop rejects further publishing
func (b *InMemoryEventBus) Stop(context.Context) error {
	b.stopped.Store(true)
	b.logger.Info("Event bus stopped")
	return nil
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
