package handler

import (
	"github.com/erp/smarterp/internal/application/dashboard"
	"github.com/erp/smarterp/internal/application/records"
	"github.com/erp/smarterp/internal/domain/partner"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// CustomerHandler handles customer-related API endpoints
type CustomerHandler struct {
	*recordEndpoints[partner.Customer, *partner.Customer]
	dashboard *dashboard.Service
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(service *records.Service[partner.Customer, *partner.Customer], dash *dashboard.Service) *CustomerHandler {
	return &CustomerHandler{
		recordEndpoints: newRecordEndpoints(service,
			shared.Order{Field: "name", Direction: shared.Asc},
			"segment", "riskScore", "creditLimit", "dso", "createdAt"),
		dashboard: dash,
	}
}

// List godoc
// @ID           listCustomers
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Param        limit    query int    false "Maximum number of customers" minimum(1) maximum(500)
// @Param        order_by query string false "Sort field" Enums(name, segment, riskScore, creditLimit, dso, createdAt)
// @Param        order    query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]partner.Customer]
// @Failure      400 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	h.list(c)
}

// Get godoc
// @ID           getCustomer
// @Summary      Get a customer
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID"
// @Success      200 {object} APIResponse[partner.Customer]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [get]
func (h *CustomerHandler) Get(c *gin.Context) {
	h.get(c)
}

// Create godoc
// @ID           createCustomer
// @Summary      Create a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body partner.Customer true "Customer"
// @Success      201 {object} APIResponse[partner.Customer]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	h.create(c)
}

// Update godoc
// @ID           updateCustomer
// @Summary      Update a customer
// @Description  Merges the given fields into the customer. The result must still be a valid customer.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id      path string         true "Customer ID"
// @Param        request body map[string]any true "Fields to change"
// @Success      200 {object} APIResponse[partner.Customer]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	h.update(c)
}

// Delete godoc
// @ID           deleteCustomer
// @Summary      Delete a customer
// @Tags         customers
// @Param        id path string true "Customer ID"
// @Success      204
// @Security     BearerAuth
// @Router       /customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	h.delete(c)
}

// Orders godoc
// @ID           listCustomerOrders
// @Summary      List a customer's orders
// @Description  Newest first
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID"
// @Success      200 {object} APIResponse[[]trade.Order]
// @Security     BearerAuth
// @Router       /customers/{id}/orders [get]
func (h *CustomerHandler) Orders(c *gin.Context) {
	orders, err := h.dashboard.CustomerOrders(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.BaseHandler.List(c, orders, len(orders), 0)
}
