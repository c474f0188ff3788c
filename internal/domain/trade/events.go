package trade

import "github.com/erp/smarterp/internal/domain/shared"

// AggregateTypeOrder is the aggregate type for order events
const AggregateTypeOrder = "Order"

// EventTypeOrderCreated is published after an order has been stored
const EventTypeOrderCreated = "OrderCreated"

// EventTypeOrderStatusChanged is published after an order changed status
const EventTypeOrderStatusChanged = "OrderStatusChanged"

// OrderCreatedEvent carries the stored order
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	Order Order `json:"order"`
}

// NewOrderCreatedEvent creates an OrderCreatedEvent for a stored order
func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, order.ID),
		Order:           *order,
	}
}

// OrderStatusChangedEvent carries the order after a status transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	Order          Order       `json:"order"`
	PreviousStatus OrderStatus `json:"previous_status"`
}

// NewOrderStatusChangedEvent creates an OrderStatusChangedEvent
func NewOrderStatusChangedEvent(order *Order, previous OrderStatus) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, order.ID),
		Order:           *order,
		PreviousStatus:  previous,
	}
}
