package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationDetails(t *testing.T) {
	type request struct {
		Email   string `json:"email" binding:"required,email"`
		Segment string `json:"segment" binding:"required,oneof=A B C"`
	}
	SetupValidator()

	var details any
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req request
		err := c.ShouldBindJSON(&req)
		details = ValidationDetails(err)
		c.Status(http.StatusOK)
	})

	perform(router, http.MethodPost, "/test", strings.NewReader(`{"email":"invalid","segment":"Z"}`),
		"Content-Type", "application/json")

	data, err := json.Marshal(details)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"field":"email","message":"Invalid email format"},
		{"field":"segment","message":"Must be one of: A B C"}
	]`, string(data))
}

func TestValidationDetails_NotAFieldError(t *testing.T) {
	assert.Nil(t, ValidationDetails(errors.New("unexpected EOF")))
}
