package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized  = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden     = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState  = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// RepositoryError wraps any failure talking to the document store.
type RepositoryError struct {
	Collection string
	Op         string
	Err        error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s: %v", e.Collection, e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError wraps err for the given collection and operation.
// A nil err yields nil.
func NewRepositoryError(collection, op string, err error) error {
	if err == nil {
		return nil
	}
	var repoErr *RepositoryError
	if errors.As(err, &repoErr) {
		return err
	}
	return &RepositoryError{Collection: collection, Op: op, Err: err}
}

// ValidationError reports caller-supplied input that fails a precondition.
// It is surfaced to the user as is and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ExternalServiceError wraps failures of third-party services such as the
// generative-language API.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// NewExternalServiceError wraps err as a failure of service.
func NewExternalServiceError(service string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Err: err}
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
