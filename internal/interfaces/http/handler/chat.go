package handler

import (
	"github.com/erp/smarterp/internal/application/assistant"
	"github.com/erp/smarterp/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ChatHandler serves the business assistant
type ChatHandler struct {
	BaseHandler
	assistant *assistant.Service
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(svc *assistant.Service) *ChatHandler {
	return &ChatHandler{assistant: svc}
}

// AskRequest is one question to the assistant
// @name HandlerAskRequest
type AskRequest struct {
	Message string `json:"message" binding:"required,max=4000" example:"Which customers are overdue?"`
}

// History godoc
// @ID           getChatHistory
// @Summary      Get the signed-in user's conversation
// @Tags         chat
// @Produce      json
// @Success      200 {object} APIResponse[assistant.ChatSession]
// @Security     BearerAuth
// @Router       /chat [get]
func (h *ChatHandler) History(c *gin.Context) {
	session, err := h.assistant.History(c.Request.Context(), userID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// Ask godoc
// @ID           askAssistant
// @Summary      Ask the assistant a question
// @Description  Answers from a snapshot of customers, products, orders, invoices and KPIs. Answers a fixed apology when the text model is unavailable.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request body AskRequest true "Question"
// @Success      200 {object} APIResponse[assistant.Reply]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /chat [post]
func (h *ChatHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	reply, err := h.assistant.Ask(c.Request.Context(), userID(c), req.Message)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reply)
}

func userID(c *gin.Context) string {
	if p := middleware.GetPrincipal(c); p != nil {
		return p.UID
	}
	return ""
}
