package handler

import (
	auditapp "github.com/erp/smarterp/internal/application/audit"
	"github.com/erp/smarterp/internal/domain/audit"
	"github.com/gin-gonic/gin"
)

// EventHandler exposes the audit log to administrators
type EventHandler struct {
	BaseHandler
	audit *auditapp.Service
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(svc *auditapp.Service) *EventHandler {
	return &EventHandler{audit: svc}
}

// EventListQuery filters the audit log
type EventListQuery struct {
	EntityID string `form:"entityId"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// ReplayResponse reports whether a replay wrote a new event
// @name HandlerReplayResponse
type ReplayResponse struct {
	OrderID string `json:"orderId"`
	Written bool   `json:"written"`
}

// List godoc
// @ID           listEvents
// @Summary      List audit events
// @Description  Newest first. With entityId, every event about that record.
// @Tags         events
// @Produce      json
// @Param        entityId query string false "Only events about this record"
// @Param        limit    query int    false "Maximum number of events" minimum(1) maximum(500)
// @Success      200 {object} APIResponse[[]audit.Event]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /events [get]
func (h *EventHandler) List(c *gin.Context) {
	var q EventListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	var (
		events []audit.Event
		err    error
	)
	if q.EntityID != "" {
		events, err = h.audit.ListForEntity(c.Request.Context(), q.EntityID)
	} else {
		events, err = h.audit.List(c.Request.Context(), q.Limit)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.BaseHandler.List(c, events, len(events), q.Limit)
}

// ReplayOrderCreated godoc
// @ID           replayOrderCreated
// @Summary      Write a missing orderCreated event
// @Description  Does nothing when the order already has one.
// @Tags         events
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} APIResponse[ReplayResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /events/replay/orders/{id} [post]
func (h *EventHandler) ReplayOrderCreated(c *gin.Context) {
	orderID := c.Param("id")
	written, err := h.audit.ReplayOrderCreated(c.Request.Context(), orderID, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ReplayResponse{OrderID: orderID, Written: written})
}
