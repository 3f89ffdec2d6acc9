// Package apperror provides the HTTP-facing error type for Outreach.
// Handlers return these from Echo handlers; the app error handler maps them
// to JSON for /api requests and to rendered pages (or a login redirect) for
// browser requests.
//
// Form actions never return an AppError to the UI. They report failures as
// field errors on the form state instead. AppError is reserved for requests
// that cannot render their normal response at all.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError carries an HTTP status code, a machine-readable type and a
// message that is safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 401, 400, 502).
	Code int `json:"-"`

	// Type is a machine-readable classifier (e.g., "unauthorized").
	Type string `json:"type"`

	// Message is safe for the client.
	Message string `json:"message"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewBadRequest creates a 400 Bad Request error.
func NewBadRequest(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Type: "bad_request", Message: message}
}

// NewUnauthorized creates a 401 Unauthorized error. Browser requests that
// end in this error are redirected to the login page.
func NewUnauthorized(message string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Type: "unauthorized", Message: message}
}

// NewForbidden creates a 403 Forbidden error.
func NewForbidden(message string) *AppError {
	return &AppError{Code: http.StatusForbidden, Type: "forbidden", Message: message}
}

// NewTooManyRequests creates a 429 error for rate-limited requests.
func NewTooManyRequests(message string) *AppError {
	return &AppError{Code: http.StatusTooManyRequests, Type: "rate_limited", Message: message}
}

// NewNotFound creates a 404 Not Found error.
func NewNotFound(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Type: "not_found", Message: message}
}

// NewUnsupportedMediaType creates a 415 error for bodies in the wrong format.
func NewUnsupportedMediaType(message string) *AppError {
	return &AppError{Code: http.StatusUnsupportedMediaType, Type: "unsupported_media_type", Message: message}
}

// NewBadGateway creates a 502 error for failures of the upstream backend
// that a handler cannot turn into a form message.
func NewBadGateway(err error) *AppError {
	return &AppError{
		Code:     http.StatusBadGateway,
		Type:     "bad_gateway",
		Message:  "The backend service did not respond correctly. Please try again.",
		Internal: err,
	}
}

// NewInternal creates a 500 Internal Server Error. The real error is kept in
// Internal for logging; the client only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// SafeMessage returns a client-safe message for any error. AppError messages
// pass through; everything else collapses to a generic message so backend
// URLs or decode details never reach the browser.
func SafeMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status code of an AppError, or 500.
func SafeCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
