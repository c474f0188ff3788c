package handler

import (
	"errors"

	tradeapp "github.com/erp/smarterp/internal/application/trade"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OrderHandler handles order-related API endpoints
type OrderHandler struct {
	BaseHandler
	orders *tradeapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders *tradeapp.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// OrderCreatedResponse is the result of placing an order
// @name HandlerOrderCreatedResponse
type OrderCreatedResponse struct {
	tradeapp.CreateOrderResult
	// AuditRecorded is false when the order was stored but its orderCreated
	// event was not; an admin can replay it.
	AuditRecorded bool `json:"auditRecorded"`
}

// List godoc
// @ID           listOrders
// @Summary      List orders
// @Description  Newest first
// @Tags         orders
// @Produce      json
// @Param        customerId query string false "Only orders of this customer"
// @Param        status     query string false "Only orders in this status" Enums(pending, confirmed, processing, shipped, delivered, cancelled)
// @Param        limit      query int    false "Maximum number of orders" minimum(1) maximum(500)
// @Success      200 {object} APIResponse[[]trade.Order]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var filter tradeapp.ListOrdersFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	orders, err := h.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.BaseHandler.List(c, orders, len(orders), filter.Limit)
}

// Get godoc
// @ID           getOrder
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} APIResponse[trade.Order]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Create godoc
// @ID           createOrder
// @Summary      Place an order
// @Description  Prices the lines at current product prices and adds 18% tax. Lines for unknown products are dropped. Stock is not changed.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.CreateOrderInput true "Order"
// @Success      201 {object} APIResponse[OrderCreatedResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var in tradeapp.CreateOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BindError(c, err)
		return
	}
	in.Actor = actor(c)

	result, err := h.orders.CreateOrder(c.Request.Context(), in)
	if err != nil && !(result != nil && errors.Is(err, tradeapp.ErrAuditNotRecorded)) {
		h.HandleError(c, err)
		return
	}
	if err != nil {
		logger.L(c.Request.Context()).Warn("Order created without audit event",
			zap.String("order_id", result.ID),
			zap.Error(err),
		)
	}
	h.Created(c, OrderCreatedResponse{CreateOrderResult: *result, AuditRecorded: err == nil})
}

// UpdateStatus godoc
// @ID           updateOrderStatus
// @Summary      Move an order through its lifecycle
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string                     true "Order ID"
// @Param        request body tradeapp.UpdateStatusInput true "Target status"
// @Success      200 {object} APIResponse[trade.Order]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var in tradeapp.UpdateStatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BindError(c, err)
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), in.Status, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
