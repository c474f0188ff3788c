package dto

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string             `json:"code" example:"ERR_NOT_FOUND"`
	Message   string             `json:"message" example:"Resource not found"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail names one failing request field
type ValidationDetail struct {
	Field   string `json:"field" example:"customerId"`
	Message string `json:"message" example:"This field is required"`
}

// Meta describes a list result
type Meta struct {
	Total int `json:"total"`
	Limit int `json:"limit,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewListResponse creates a success response for a list of total items
// fetched with limit (0 when unbounded)
func NewListResponse(data any, total, limit int) Response {
	return Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total: total,
			Limit: limit,
		},
	}
}

// NewErrorResponse creates an error response. Legacy domain codes are
// normalized.
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    NormalizeErrorCode(code),
			Message: message,
		},
	}
}

// NewErrorResponseWithRequestID creates an error response tagged with the request ID
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	resp := NewErrorResponse(code, message)
	resp.Error.RequestID = requestID
	return resp
}

// NewValidationErrorResponse creates a 400 body listing the failing fields
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	resp := NewErrorResponseWithRequestID(ErrCodeValidation, message, requestID)
	resp.Error.Details = details
	return resp
}

// ListQuery is the common query string of list endpoints
type ListQuery struct {
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=500"`
	OrderBy string `form:"order_by" binding:"omitempty,max=64"`
	Order   string `form:"order" binding:"omitempty,oneof=asc desc"`
}
