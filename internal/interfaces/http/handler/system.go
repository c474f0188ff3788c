package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/erp/smarterp/internal/infrastructure/logger"
	"github.com/erp/smarterp/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthCheckTimeout = 3 * time.Second

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// SystemHandler reports service health
type SystemHandler struct {
	BaseHandler
	version   string
	startTime time.Time
	checks    map[string]HealthCheck
}

// NewSystemHandler creates a SystemHandler running checks on every health probe
func NewSystemHandler(version string, checks map[string]HealthCheck) *SystemHandler {
	return &SystemHandler{
		version:   version,
		startTime: time.Now(),
		checks:    checks,
	}
}

// HealthResponse represents the health check response
// @name HandlerHealthResponse
type HealthResponse struct {
	Status    string            `json:"status" example:"healthy"`
	Version   string            `json:"version" example:"1.0.0"`
	GoVersion string            `json:"go_version" example:"go1.25.5"`
	Uptime    string            `json:"uptime" example:"1h30m45s"`
	Checks    map[string]string `json:"checks"`
}

// Health godoc
// @ID           getHealth
// @Summary      Check service health
// @Description  Probes the document store and cache. Returns 503 when a dependency is down.
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    make(map[string]string, len(h.checks)),
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			logger.L(ctx).Warn("Health check failed", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = "error"
			resp.Status = "unhealthy"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}
