package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unified error code across the platform.
type ErrorCode string

const (
	ErrValidation   ErrorCode = "VALIDATION"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrProvider     ErrorCode = "PROVIDER_ERROR"
	ErrTimeout      ErrorCode = "TIMEOUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrQueue        ErrorCode = "QUEUE_ERROR"
	ErrStorage      ErrorCode = "STORAGE_ERROR"
	ErrUnsupported  ErrorCode = "UNSUPPORTED"
)

// Error is a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
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

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// GetErrorCode extracts the error code from an error chain.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsRetryable reports whether the error chain carries a retryable Error.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// ValidationError carries every constraint violation found in a create
// request, not just the first one. It is terminal and never retried.
type ValidationError struct {
	Violations []string `json:"violations"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// NewValidationError builds a ValidationError from the collected violations.
func NewValidationError(violations []string) *ValidationError {
	return &ValidationError{Violations: violations}
}
