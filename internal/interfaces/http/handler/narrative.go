package handler

import (
	reportapp "github.com/erp/smarterp/internal/application/report"
	"github.com/gin-gonic/gin"
)

// NarrativeHandler serves the generated monthly business narratives
type NarrativeHandler struct {
	BaseHandler
	narratives *reportapp.NarrativeService
}

// NewNarrativeHandler creates a new NarrativeHandler
func NewNarrativeHandler(narratives *reportapp.NarrativeService) *NarrativeHandler {
	return &NarrativeHandler{narratives: narratives}
}

// GenerateNarrativeRequest selects the month to describe
// @name HandlerGenerateNarrativeRequest
type GenerateNarrativeRequest struct {
	// Month in YYYY-MM form; the current month when empty
	Month string `json:"month" binding:"omitempty,len=7" example:"2024-05"`
}

// ReviewActionRequest picks one recommended action of a narrative
// @name HandlerReviewActionRequest
type ReviewActionRequest struct {
	ActionIndex *int `json:"actionIndex" binding:"required,min=0" example:"0"`
}

// ReviewActionResponse names the audit event that recorded the review
// @name HandlerReviewActionResponse
type ReviewActionResponse struct {
	EventID string `json:"eventId"`
}

// List godoc
// @ID           listNarratives
// @Summary      List generated narratives
// @Tags         narratives
// @Produce      json
// @Param        limit query int false "Maximum number of narratives" minimum(1) maximum(500)
// @Success      200 {object} APIResponse[[]report.Narrative]
// @Security     BearerAuth
// @Router       /narratives [get]
func (h *NarrativeHandler) List(c *gin.Context) {
	var q struct {
		Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	items, err := h.narratives.List(c.Request.Context(), q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.BaseHandler.List(c, items, len(items), q.Limit)
}

// Latest godoc
// @ID           getLatestNarrative
// @Summary      Get the most recently generated narrative
// @Tags         narratives
// @Produce      json
// @Success      200 {object} APIResponse[report.Narrative]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /narratives/latest [get]
func (h *NarrativeHandler) Latest(c *gin.Context) {
	n, err := h.narratives.Latest(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, n)
}

// Get godoc
// @ID           getNarrative
// @Summary      Get a narrative
// @Tags         narratives
// @Produce      json
// @Param        id path string true "Narrative ID"
// @Success      200 {object} APIResponse[report.Narrative]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /narratives/{id} [get]
func (h *NarrativeHandler) Get(c *gin.Context) {
	n, err := h.narratives.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, n)
}

// Generate godoc
// @ID           generateNarrative
// @Summary      Generate a narrative for a month
// @Description  Summarizes the current business snapshot with the text model and stores the result.
// @Tags         narratives
// @Accept       json
// @Produce      json
// @Param        request body GenerateNarrativeRequest false "Month"
// @Success      201 {object} APIResponse[report.Narrative]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /narratives/generate [post]
func (h *NarrativeHandler) Generate(c *gin.Context) {
	var req GenerateNarrativeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}
	n, err := h.narratives.Generate(c.Request.Context(), actor(c), req.Month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, n)
}

// Review godoc
// @ID           reviewNarrativeAction
// @Summary      Record that a recommended action was reviewed
// @Tags         narratives
// @Accept       json
// @Produce      json
// @Param        id      path string              true "Narrative ID"
// @Param        request body ReviewActionRequest true "Action"
// @Success      201 {object} APIResponse[ReviewActionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /narratives/{id}/review [post]
func (h *NarrativeHandler) Review(c *gin.Context) {
	var req ReviewActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	eventID, err := h.narratives.ReviewAction(c.Request.Context(), actor(c), c.Param("id"), *req.ActionIndex)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ReviewActionResponse{EventID: eventID})
}
