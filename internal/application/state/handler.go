package state

import (
	"context"

	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/domain/trade"
)

// OrderEventHandler keeps the held orders in step with the order engine
type OrderEventHandler struct {
	state *AppState
}

// NewOrderEventHandler creates a handler writing to state
func NewOrderEventHandler(state *AppState) *OrderEventHandler {
	return &OrderEventHandler{state: state}
}

// EventTypes returns the order events the handler consumes
func (h *OrderEventHandler) EventTypes() []string {
	return []string{trade.EventTypeOrderCreated, trade.EventTypeOrderStatusChanged}
}

// Handle adds created orders and replaces orders whose status changed
func (h *OrderEventHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *trade.OrderCreatedEvent:
		h.state.AddOrder(e.Order)
	case *trade.OrderStatusChangedEvent:
		h.state.AddOrder(e.Order)
	}
	return nil
}

var _ shared.EventHandler = (*OrderEventHandler)(nil)
