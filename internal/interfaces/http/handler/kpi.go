package handler

import (
	"github.com/erp/smarterp/internal/application/dashboard"
	"github.com/erp/smarterp/internal/application/records"
	"github.com/erp/smarterp/internal/domain/report"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// KPIHandler serves the monthly KPI snapshots
type KPIHandler struct {
	*recordEndpoints[report.KPI, *report.KPI]
	dashboard *dashboard.Service
}

// NewKPIHandler creates a new KPIHandler
func NewKPIHandler(service *records.Service[report.KPI, *report.KPI], dash *dashboard.Service) *KPIHandler {
	return &KPIHandler{
		recordEndpoints: newRecordEndpoints(service,
			shared.Order{Field: "month", Direction: shared.Desc},
			"totalRevenue", "totalOrders"),
		dashboard: dash,
	}
}

// List godoc
// @ID           listKPIs
// @Summary      List monthly KPI snapshots
// @Tags         kpi
// @Produce      json
// @Param        limit query int    false "Maximum number of months" minimum(1) maximum(500)
// @Param        order query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]report.KPI]
// @Security     BearerAuth
// @Router       /kpi [get]
func (h *KPIHandler) List(c *gin.Context) {
	h.list(c)
}

// Create godoc
// @ID           createKPI
// @Summary      Store a monthly KPI snapshot
// @Tags         kpi
// @Accept       json
// @Produce      json
// @Param        request body report.KPI true "KPI snapshot"
// @Success      201 {object} APIResponse[report.KPI]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /kpi [post]
func (h *KPIHandler) Create(c *gin.Context) {
	h.create(c)
}

// Latest godoc
// @ID           getLatestKPI
// @Summary      Get the most recent month's KPI snapshot
// @Tags         kpi
// @Produce      json
// @Success      200 {object} APIResponse[report.KPI]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /kpi/latest [get]
func (h *KPIHandler) Latest(c *gin.Context) {
	kpi, err := h.dashboard.LatestKPI(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, kpi)
}
