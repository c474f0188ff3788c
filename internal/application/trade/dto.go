package trade

import (
	auditapp "github.com/erp/smarterp/internal/application/audit"
	"github.com/erp/smarterp/internal/domain/trade"
)

// CreateOrderInput is a request to place an order
type CreateOrderInput struct {
	CustomerID string              `json:"customerId" binding:"required"`
	Items      []trade.LineRequest `json:"items" binding:"required,min=1,dive"`
	Notes      string              `json:"notes" binding:"max=1000"`
	// Actor is the signed-in user placing the order
	Actor auditapp.Actor `json:"-"`
}

// CreateOrderResult describes a stored order
type CreateOrderResult struct {
	ID           string       `json:"id"`
	OrderNumber  string       `json:"orderNumber"`
	Order        *trade.Order `json:"order"`
	DroppedLines int          `json:"droppedLines"`
}

// UpdateStatusInput is a request to move an order through its lifecycle
type UpdateStatusInput struct {
	Status trade.OrderStatus `json:"status" binding:"required,oneof=pending confirmed processing shipped delivered cancelled"`
}

// ListOrdersFilter narrows ListOrders
type ListOrdersFilter struct {
	CustomerID string            `form:"customerId"`
	Status     trade.OrderStatus `form:"status" binding:"omitempty,oneof=pending confirmed processing shipped delivered cancelled"`
	Limit      int               `form:"limit" binding:"omitempty,min=1,max=500"`
}
