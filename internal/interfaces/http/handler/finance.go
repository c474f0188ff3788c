package handler

import (
	"github.com/erp/smarterp/internal/application/dashboard"
	"github.com/erp/smarterp/internal/application/records"
	"github.com/erp/smarterp/internal/domain/finance"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice-related API endpoints
type InvoiceHandler struct {
	*recordEndpoints[finance.Invoice, *finance.Invoice]
	dashboard *dashboard.Service
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(service *records.Service[finance.Invoice, *finance.Invoice], dash *dashboard.Service) *InvoiceHandler {
	return &InvoiceHandler{
		recordEndpoints: newRecordEndpoints(service,
			shared.Order{Field: "dueDate", Direction: shared.Desc},
			"invoiceNumber", "customerName", "total", "paymentStatus"),
		dashboard: dash,
	}
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        limit    query int    false "Maximum number of invoices" minimum(1) maximum(500)
// @Param        order_by query string false "Sort field" Enums(dueDate, invoiceNumber, customerName, total, paymentStatus)
// @Param        order    query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]finance.Invoice]
// @Security     BearerAuth
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	h.list(c)
}

// Get godoc
// @ID           getInvoice
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Success      200 {object} APIResponse[finance.Invoice]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	h.get(c)
}

// Create godoc
// @ID           createInvoice
// @Summary      Create an invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body finance.Invoice true "Invoice"
// @Success      201 {object} APIResponse[finance.Invoice]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	h.create(c)
}

// Update godoc
// @ID           updateInvoice
// @Summary      Update an invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id      path string         true "Invoice ID"
// @Param        request body map[string]any true "Fields to change"
// @Success      200 {object} APIResponse[finance.Invoice]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	h.update(c)
}

// Pending godoc
// @ID           listPendingInvoices
// @Summary      List unpaid, partially paid and overdue invoices
// @Description  Earliest due date first
// @Tags         invoices
// @Produce      json
// @Success      200 {object} APIResponse[[]finance.Invoice]
// @Security     BearerAuth
// @Router       /invoices/pending [get]
func (h *InvoiceHandler) Pending(c *gin.Context) {
	invoices, err := h.dashboard.PendingInvoices(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.BaseHandler.List(c, invoices, len(invoices), 0)
}

// PaymentHandler handles payment-related API endpoints
type PaymentHandler struct {
	*recordEndpoints[finance.Payment, *finance.Payment]
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(service *records.Service[finance.Payment, *finance.Payment]) *PaymentHandler {
	return &PaymentHandler{
		recordEndpoints: newRecordEndpoints(service,
			shared.Order{Field: "paymentDate", Direction: shared.Desc},
			"amount", "status", "customerName", "invoiceNumber"),
	}
}

// List godoc
// @ID           listPayments
// @Summary      List payments
// @Tags         payments
// @Produce      json
// @Param        limit    query int    false "Maximum number of payments" minimum(1) maximum(500)
// @Param        order_by query string false "Sort field" Enums(paymentDate, amount, status, customerName, invoiceNumber)
// @Param        order    query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]finance.Payment]
// @Security     BearerAuth
// @Router       /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	h.list(c)
}

// Get godoc
// @ID           getPayment
// @Summary      Get a payment
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} APIResponse[finance.Payment]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	h.get(c)
}

// Create godoc
// @ID           createPayment
// @Summary      Record a payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body finance.Payment true "Payment"
// @Success      201 {object} APIResponse[finance.Payment]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	h.create(c)
}
