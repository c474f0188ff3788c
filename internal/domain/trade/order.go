package trade

import (
	"fmt"
	"slices"
	"time"

	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CollectionOrders is the document collection holding orders
const CollectionOrders = "orders"

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status.
// Orders move forward one step at a time and may be cancelled from any
// non-terminal state.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target == OrderStatusCancelled {
		return true
	}
	switch s {
	case OrderStatusPending:
		return target == OrderStatusConfirmed
	case OrderStatusConfirmed:
		return target == OrderStatusProcessing
	case OrderStatusProcessing:
		return target == OrderStatusShipped
	case OrderStatusShipped:
		return target == OrderStatusDelivered
	}
	return false
}

// OrderItem is a priced line of an order. UnitPrice is a snapshot of the
// product price when the order was placed and never changes afterwards.
type OrderItem struct {
	ProductID   string  `json:"productId" firestore:"productId" validate:"required"`
	ProductName string  `json:"productName" firestore:"productName"`
	Quantity    int     `json:"quantity" firestore:"quantity" validate:"gte=1"`
	UnitPrice   float64 `json:"unitPrice" firestore:"unitPrice" validate:"gte=0"`
	Total       float64 `json:"total" firestore:"total" validate:"gte=0"`
}

// Order is a priced, persisted customer order
type Order struct {
	shared.DocumentID
	OrderNumber  string      `json:"orderNumber" firestore:"orderNumber" validate:"required"`
	CustomerID   string      `json:"customerId" firestore:"customerId" validate:"required"`
	CustomerName string      `json:"customerName" firestore:"customerName"`
	Items        []OrderItem `json:"items" firestore:"items" validate:"dive"`
	Subtotal     float64     `json:"subtotal" firestore:"subtotal"`
	Tax          float64     `json:"tax" firestore:"tax"`
	Total        float64     `json:"total" firestore:"total"`
	Status       OrderStatus `json:"status" firestore:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled"`
	Notes        string      `json:"notes" firestore:"notes"`
	CreatedAt    time.Time   `json:"createdAt" firestore:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt" firestore:"updatedAt"`
	CreatedBy    string      `json:"createdBy" firestore:"createdBy"`
}

// NewOrder creates a pending order from priced lines
func NewOrder(orderNumber, customerID, customerName string, items []OrderItem, createdBy string, now time.Time) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewValidationError("orderNumber", "order number cannot be empty")
	}
	if customerID == "" {
		return nil, shared.NewValidationError("customerId", "a customer must be selected")
	}
	if len(items) == 0 {
		return nil, shared.NewValidationError("items", "order must contain at least one valid line")
	}

	totals := ComputeTotals(items)
	return &Order{
		OrderNumber:  orderNumber,
		CustomerID:   customerID,
		CustomerName: customerName,
		Items:        items,
		Subtotal:     totals.Subtotal.InexactFloat64(),
		Tax:          totals.Tax.InexactFloat64(),
		Total:        totals.Total.InexactFloat64(),
		Status:       OrderStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
		CreatedBy:    createdBy,
	}, nil
}

// Clone returns a copy that shares no memory with o
func (o Order) Clone() Order {
	o.Items = slices.Clone(o.Items)
	return o
}

// TransitionTo moves the order to the target status
func (o *Order) TransitionTo(target OrderStatus, now time.Time) error {
	if !target.IsValid() {
		return shared.NewValidationError("status", fmt.Sprintf("unknown order status %q", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move order from %s to %s", o.Status, target))
	}
	o.Status = target
	o.UpdatedAt = now
	return nil
}

// Validate checks that the stored totals agree with the lines
func (o *Order) Validate() error {
	if o.CustomerID == "" {
		return shared.NewValidationError("customerId", "a customer must be selected")
	}
	if len(o.Items) == 0 {
		return shared.NewValidationError("items", "order must contain at least one line")
	}
	totals := ComputeTotals(o.Items)
	if !totals.Subtotal.Equal(decimal.NewFromFloat(o.Subtotal)) || !totals.Total.Equal(decimal.NewFromFloat(o.Total)) {
		return shared.NewValidationError("total", "order totals do not match its lines")
	}
	return nil
}

// StampCreated sets both timestamps for a new order
func (o *Order) StampCreated(now time.Time) {
	o.CreatedAt = now
	o.UpdatedAt = now
}

// StampUpdated sets the update timestamp
func (o *Order) StampUpdated(now time.Time) {
	o.UpdatedAt = now
}

// ItemCount returns the number of lines
func (o *Order) ItemCount() int {
	return len(o.Items)
}
