// Package httpx provides the API response envelope and error taxonomy.
package httpx

import (
	"errors"
	"net/http"
)

// Code identifies a stable, client-visible error kind.
type Code string

// Error codes exposed through the API envelope.
const (
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeInvalidToken      Code = "INVALID_TOKEN"
	CodeTokenExpired      Code = "TOKEN_EXPIRED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeAlreadyExists     Code = "ALREADY_EXISTS"
	CodeValidationError   Code = "VALIDATION_ERROR"
	CodeInvalidInput      Code = "INVALID_INPUT"
	CodeMissingField      Code = "MISSING_FIELD"
	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// Error is the typed error produced by pipeline steps and handlers. It maps
// one-to-one onto the error envelope; the wrapped cause never reaches the
// client.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.cause.Error()
	}
	return string(e.Code) + ": " + e.Message
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// NewError constructs a typed API error.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError attaches a cause to a typed API error. The cause is logged
// server-side only.
func WrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithDetails returns a copy carrying field-level details. Only validation
// errors should use this.
func (e *Error) WithDetails(details map[string]any) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

// Status maps an error code to its HTTP status.
func Status(code Code) int {
	switch code {
	case CodeUnauthorized, CodeInvalidToken, CodeTokenExpired:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodeValidationError, CodeInvalidInput, CodeMissingField:
		return http.StatusBadRequest
	case CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// AsError normalizes any error into a typed API error. Unrecognized errors
// become INTERNAL_ERROR with a generic message so provider-specific text never
// leaks to callers.
func AsError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return WrapError(CodeInternal, "internal server error", err)
}
