package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unified error code across the service.
type ErrorCode string

// Request error codes
const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrRateLimited    ErrorCode = "RATE_LIMITED"
	ErrUnsupported    ErrorCode = "UNSUPPORTED"
)

// Compilation error codes
const (
	ErrValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCompilationFailed ErrorCode = "COMPILATION_FAILED"
	ErrExportFailed      ErrorCode = "EXPORT_FAILED"
)

// Service error codes
const (
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Details    any       `json:"details,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithDetails attaches a machine-readable payload, e.g. a validation result.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// WrapError wraps err into a *Error with code. An existing *Error is returned as is.
func WrapError(err error, code ErrorCode, message string) *Error {
	if e, ok := AsError(err); ok {
		return e
	}
	return NewError(code, message).WithCause(err)
}

// NewInvalidRequestError creates a 400 error.
func NewInvalidRequestError(message string) *Error {
	return NewError(ErrInvalidRequest, message).WithHTTPStatus(http.StatusBadRequest)
}

// NewNotFoundError creates a 404 error.
func NewNotFoundError(message string) *Error {
	return NewError(ErrNotFound, message).WithHTTPStatus(http.StatusNotFound)
}

// NewValidationError creates a 422 error carrying the validation details.
func NewValidationError(details any) *Error {
	return NewError(ErrValidationFailed, "blueprint validation failed").
		WithHTTPStatus(http.StatusUnprocessableEntity).
		WithDetails(details)
}

// NewCompilationError creates the generic retryable fault returned to clients.
func NewCompilationError() *Error {
	return NewError(ErrCompilationFailed, "compilation failed, please retry").
		WithHTTPStatus(http.StatusInternalServerError).
		WithRetryable(true)
}
