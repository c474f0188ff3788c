package dto

import (
	"context"
	"errors"
	"net/http"

	"github.com/erp/smarterp/internal/domain/shared"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeTimeout is used when the request deadline passed
	ErrCodeTimeout = "ERR_TIMEOUT"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	// ErrCodeNoProfile is used when a signed-in user has no role profile
	ErrCodeNoProfile = "ERR_NO_PROFILE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Dependency error codes
const (
	// ErrCodeRepository is used when the document store fails
	ErrCodeRepository = "ERR_REPOSITORY"
	// ErrCodeExternalService is used when a third-party API fails
	ErrCodeExternalService = "ERR_EXTERNAL_SERVICE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the size limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeTimeout:  http.StatusGatewayTimeout,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation: http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeNoProfile:    http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeInvalidState:  http.StatusUnprocessableEntity,

	// Dependency errors
	ErrCodeRepository:      http.StatusServiceUnavailable,
	ErrCodeExternalService: http.StatusBadGateway,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to API codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":      ErrCodeNotFound,
	"ALREADY_EXISTS": ErrCodeAlreadyExists,
	"INVALID_INPUT":  ErrCodeInvalidInput,
	"INVALID_STATE":  ErrCodeInvalidState,
	"UNAUTHORIZED":   ErrCodeUnauthorized,
	"FORBIDDEN":      ErrCodeForbidden,
}

// NormalizeErrorCode converts a legacy error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}

// FromError classifies err into a status code and error body.
// Messages of operational failures are replaced by generic text.
func FromError(err error) (int, ErrorInfo) {
	var validationErr *shared.ValidationError
	if errors.As(err, &validationErr) {
		info := ErrorInfo{Code: ErrCodeValidation, Message: validationErr.Error()}
		if validationErr.Field != "" {
			info.Details = []ValidationDetail{{Field: validationErr.Field, Message: validationErr.Message}}
		}
		return http.StatusBadRequest, info
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := NormalizeErrorCode(domainErr.Code)
		return GetHTTPStatus(code), ErrorInfo{Code: code, Message: domainErr.Message}
	}

	var externalErr *shared.ExternalServiceError
	if errors.As(err, &externalErr) {
		return http.StatusBadGateway, ErrorInfo{
			Code:    ErrCodeExternalService,
			Message: "The " + externalErr.Service + " service is unavailable",
		}
	}

	var repoErr *shared.RepositoryError
	if errors.As(err, &repoErr) {
		return http.StatusServiceUnavailable, ErrorInfo{
			Code:    ErrCodeRepository,
			Message: "The data store is unavailable",
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, ErrorInfo{Code: ErrCodeTimeout, Message: "The request timed out"}
	}

	return http.StatusInternalServerError, ErrorInfo{Code: ErrCodeInternal, Message: "An unexpected error occurred"}
}
