package handler

import (
	"github.com/erp/smarterp/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// MeHandler describes the signed-in user
type MeHandler struct {
	BaseHandler
}

// NewMeHandler creates a new MeHandler
func NewMeHandler() *MeHandler {
	return &MeHandler{}
}

// MeResponse is the signed-in user with their roles
// @name HandlerMeResponse
type MeResponse struct {
	UID         string   `json:"uid"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	Roles       []string `json:"roles"`
}

// Get godoc
// @ID           getMe
// @Summary      Get the signed-in user
// @Description  A user without a profile is signed in with no roles.
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[MeResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me [get]
func (h *MeHandler) Get(c *gin.Context) {
	resp := MeResponse{Roles: []string{}}
	if p := middleware.GetPrincipal(c); p != nil {
		resp.UID = p.UID
		resp.Email = p.Email
		resp.DisplayName = p.Name
	}
	if profile := middleware.GetProfile(c); profile != nil {
		if profile.DisplayName != "" {
			resp.DisplayName = profile.DisplayName
		}
		if resp.Email == "" {
			resp.Email = profile.Email
		}
		resp.Roles = profile.RoleNames()
	}
	h.Success(c, resp)
}
