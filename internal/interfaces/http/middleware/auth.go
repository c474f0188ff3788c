package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/erp/smarterp/internal/domain/identity"
	"github.com/erp/smarterp/internal/infrastructure/auth"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"github.com/erp/smarterp/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by Auth
const (
	PrincipalKey = "auth_principal"
	ProfileKey   = "auth_profile"
)

const bearerPrefix = "Bearer "

// ProfileSource loads user profiles by their key
type ProfileSource interface {
	GetByID(ctx context.Context, id string) (*identity.UserProfile, error)
}

// Auth verifies the bearer token and loads the caller's profile from the
// users collection. A user without a stored profile is signed in with no
// roles.
func Auth(verifier auth.TokenVerifier, profiles ProfileSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortAuth(c, auth.ErrMissingToken)
			return
		}

		ctx := c.Request.Context()
		principal, err := verifier.Verify(ctx, token)
		if err != nil {
			abortAuth(c, err)
			return
		}

		profile, err := profiles.GetByID(ctx, identity.ProfileKey(principal.Email))
		if err != nil {
			logger.L(ctx).Error("Failed to load user profile",
				zap.String("email", principal.Email),
				zap.Error(err),
			)
			status, info := dto.FromError(err)
			info.RequestID = GetRequestID(c)
			c.AbortWithStatusJSON(status, dto.Response{Error: &info})
			return
		}
		if profile == nil {
			profile = &identity.UserProfile{Email: principal.Email, DisplayName: principal.Name}
			profile.ID = identity.ProfileKey(principal.Email)
		}

		c.Set(PrincipalKey, principal)
		c.Set(ProfileKey, profile)
		c.Request = c.Request.WithContext(logger.WithUserID(ctx, principal.UID))
		c.Next()
	}
}

// RequireRole lets the request through when the profile holds one of roles.
// Admins pass every check. Place it after Auth.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile := GetProfile(c)
		if profile == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}
		if !profile.HasAny(roles...) {
			logger.L(c.Request.Context()).Warn("Role check failed",
				zap.String("path", c.FullPath()),
				zap.Strings("roles", profile.RoleNames()),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "You do not have access to this resource", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the principal set by Auth, or nil
func GetPrincipal(c *gin.Context) *auth.Principal {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(*auth.Principal); ok {
			return p
		}
	}
	return nil
}

// GetProfile returns the profile set by Auth, or nil
func GetProfile(c *gin.Context) *identity.UserProfile {
	if v, ok := c.Get(ProfileKey); ok {
		if p, ok := v.(*identity.UserProfile); ok {
			return p
		}
	}
	return nil
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	return token, token != ""
}

func abortAuth(c *gin.Context, err error) {
	code := dto.ErrCodeTokenInvalid
	message := "Invalid token"
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		code, message = dto.ErrCodeUnauthorized, "Missing bearer token"
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	}

	logger.L(c.Request.Context()).Warn("Authentication failed",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
