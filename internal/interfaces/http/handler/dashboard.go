package handler

import (
	"github.com/erp/smarterp/internal/application/dashboard"
	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the dashboard summary
type DashboardHandler struct {
	BaseHandler
	dashboard *dashboard.Service
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(svc *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{dashboard: svc}
}

// Summary godoc
// @ID           getDashboard
// @Summary      Get the dashboard summary
// @Description  Collection counts, low-stock products, pending invoices, recent orders and the latest KPI and narrative.
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[dashboard.Summary]
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
