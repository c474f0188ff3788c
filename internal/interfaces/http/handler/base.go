package handler

import (
	"errors"
	"net/http"

	auditapp "github.com/erp/smarterp/internal/application/audit"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"github.com/erp/smarterp/internal/interfaces/http/dto"
	"github.com/erp/smarterp/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// List sends a list with its size and the limit it was fetched with
func (h *BaseHandler) List(c *gin.Context, items any, total, limit int) {
	c.JSON(http.StatusOK, dto.NewListResponse(items, total, limit))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// BindError reports a request body or query that could not be bound.
// Field validation failures list the failing fields.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
		return
	}
	if details := middleware.ValidationDetails(err); details != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Request validation failed",
			middleware.GetRequestID(c),
			details,
		))
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Malformed request body")
}

// HandleError converts an application error to an HTTP response.
// Server-side failures are logged with their cause.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	status, info := dto.FromError(err)
	if status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("code", info.Code),
			zap.Error(err),
		)
	}
	info.RequestID = middleware.GetRequestID(c)
	c.JSON(status, dto.Response{Error: &info})
}

// actor returns the signed-in user as the author of audit events
func actor(c *gin.Context) auditapp.Actor {
	var a auditapp.Actor
	if p := middleware.GetPrincipal(c); p != nil {
		a.ID = p.UID
		a.Name = p.Name
		if a.Name == "" {
			a.Name = p.Email
		}
	}
	if profile := middleware.GetProfile(c); profile != nil && profile.DisplayName != "" {
		a.Name = profile.DisplayName
	}
	return a
}
