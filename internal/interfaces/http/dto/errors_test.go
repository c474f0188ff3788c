package dto

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeNoProfile, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeRepository, http.StatusServiceUnavailable},
		{ErrCodeExternalService, http.StatusBadGateway},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"ALREADY_EXISTS", ErrCodeAlreadyExists},
		{"INVALID_STATE", ErrCodeInvalidState},
		{"FORBIDDEN", ErrCodeForbidden},
		// New codes should pass through unchanged
		{ErrCodeNotFound, ErrCodeNotFound},
		// Unknown codes should pass through unchanged
		{"CUSTOM_ERROR", "CUSTOM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", shared.NewValidationError("customerId", "a customer must be selected"), http.StatusBadRequest, ErrCodeValidation},
		{"wrapped validation", fmt.Errorf("create: %w", shared.NewValidationError("items", "empty")), http.StatusBadRequest, ErrCodeValidation},
		{"not found", shared.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"invalid state", shared.NewDomainError("INVALID_STATE", "Cannot move order from delivered to pending"), http.StatusUnprocessableEntity, ErrCodeInvalidState},
		{"repository", shared.NewRepositoryError("orders", "create", errors.New("connection refused")), http.StatusServiceUnavailable, ErrCodeRepository},
		{"external", shared.NewExternalServiceError("gemini", errors.New("quota exceeded")), http.StatusBadGateway, ErrCodeExternalService},
		{"deadline", fmt.Errorf("load: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, ErrCodeTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, info := FromError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestFromError_ValidationDetails(t *testing.T) {
	_, info := FromError(shared.NewValidationError("items[0].quantity", "quantity must be at least 1"))

	require.Len(t, info.Details, 1)
	assert.Equal(t, "items[0].quantity", info.Details[0].Field)
	assert.Equal(t, "quantity must be at least 1", info.Details[0].Message)
}

func TestFromError_HidesOperationalCauses(t *testing.T) {
	_, info := FromError(shared.NewRepositoryError("orders", "get", errors.New("pq: password authentication failed")))
	assert.NotContains(t, info.Message, "password")

	_, info = FromError(shared.NewExternalServiceError("gemini", errors.New("API key invalid")))
	assert.Equal(t, "The gemini service is unavailable", info.Message)
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("NOT_FOUND", "Resource not found")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code) // Should be normalized
	assert.Equal(t, "Resource not found", resp.Error.Message)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "email", Message: "Invalid email format"},
		{Field: "segment", Message: "Must be one of: A B C"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 2)
}

func TestListResponseJSON(t *testing.T) {
	resp := NewListResponse([]string{"a", "b"}, 2, 50)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.JSONEq(t, `{"success":true,"data":["a","b"],"meta":{"total":2,"limit":50}}`, string(data))
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Order not found", "req-test-123")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"success":false,"error":{"code":"ERR_NOT_FOUND","message":"Order not found","request_id":"req-test-123"}}`,
		string(data))
}
