package handler

import (
	"github.com/erp/smarterp/internal/application/dashboard"
	"github.com/erp/smarterp/internal/application/records"
	"github.com/erp/smarterp/internal/application/stock"
	"github.com/erp/smarterp/internal/domain/catalog"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// ProductHandler handles product-related API endpoints
type ProductHandler struct {
	*recordEndpoints[catalog.Product, *catalog.Product]
	dashboard *dashboard.Service
	reorders  *stock.ReorderService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(service *records.Service[catalog.Product, *catalog.Product], dash *dashboard.Service, reorders *stock.ReorderService) *ProductHandler {
	return &ProductHandler{
		recordEndpoints: newRecordEndpoints(service,
			shared.Order{Field: "name", Direction: shared.Asc},
			"sku", "price", "stock", "category", "createdAt"),
		dashboard: dash,
		reorders:  reorders,
	}
}

// List godoc
// @ID           listProducts
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        limit    query int    false "Maximum number of products" minimum(1) maximum(500)
// @Param        order_by query string false "Sort field" Enums(name, sku, price, stock, category, createdAt)
// @Param        order    query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]catalog.Product]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	h.list(c)
}

// Get godoc
// @ID           getProduct
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} APIResponse[catalog.Product]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	h.get(c)
}

// Create godoc
// @ID           createProduct
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body catalog.Product true "Product"
// @Success      201 {object} APIResponse[catalog.Product]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	h.create(c)
}

// Update godoc
// @ID           updateProduct
// @Summary      Update a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id      path string         true "Product ID"
// @Param        request body map[string]any true "Fields to change"
// @Success      200 {object} APIResponse[catalog.Product]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	h.update(c)
}

// Delete godoc
// @ID           deleteProduct
// @Summary      Delete a product
// @Tags         products
// @Param        id path string true "Product ID"
// @Success      204
// @Security     BearerAuth
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	h.delete(c)
}

// LowStock godoc
// @ID           listLowStockProducts
// @Summary      List products at or below their minimum stock level
// @Description  Lowest stock first. Products without a minimum level are never listed.
// @Tags         products
// @Produce      json
// @Success      200 {object} APIResponse[[]catalog.Product]
// @Security     BearerAuth
// @Router       /products/low-stock [get]
func (h *ProductHandler) LowStock(c *gin.Context) {
	products, err := h.dashboard.LowStockProducts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.BaseHandler.List(c, products, len(products), 0)
}

// Reorder godoc
// @ID           reorderProduct
// @Summary      Request a stock reorder
// @Description  Records a stockOrderRequested event for the product
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      201 {object} APIResponse[stock.ReorderRequest]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id}/reorder [post]
func (h *ProductHandler) Reorder(c *gin.Context) {
	req, err := h.reorders.RequestReorder(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, req)
}
