package handler

import (
	"errors"
	"net/http"
)

// Package-level errors for common failure scenarios
var (
	ErrNilResponse  = errors.New("handler returned nil response")
	ErrRenderFailed = errors.New("handler failed to render response")
)

// HTTPError pairs an HTTP status code with the machine-readable error
// code written to the response body.
type HTTPError struct {
	Code int    // HTTP status code
	Key  string // Error code, e.g. "LIMIT_REACHED"
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	return e.Key
}

// NewHTTPError creates a custom HTTP error with the given status code and key.
//
// Example:
//
//	ErrLimitReached := handler.NewHTTPError(http.StatusForbidden, "LIMIT_REACHED")
func NewHTTPError(code int, key string) HTTPError {
	return HTTPError{Code: code, Key: key}
}

// 4xx Client Errors
var (
	ErrBadRequest            = HTTPError{Code: http.StatusBadRequest, Key: "BAD_REQUEST"}
	ErrUnauthorized          = HTTPError{Code: http.StatusUnauthorized, Key: "UNAUTHORIZED"}
	ErrForbidden             = HTTPError{Code: http.StatusForbidden, Key: "FORBIDDEN"}
	ErrNotFound              = HTTPError{Code: http.StatusNotFound, Key: "NOT_FOUND"}
	ErrMethodNotAllowed      = HTTPError{Code: http.StatusMethodNotAllowed, Key: "METHOD_NOT_ALLOWED"}
	ErrRequestEntityTooLarge = HTTPError{Code: http.StatusRequestEntityTooLarge, Key: "REQUEST_ENTITY_TOO_LARGE"}
	ErrUnsupportedMediaType  = HTTPError{Code: http.StatusUnsupportedMediaType, Key: "UNSUPPORTED_MEDIA_TYPE"}
	ErrUnprocessableEntity   = HTTPError{Code: http.StatusUnprocessableEntity, Key: "VALIDATION_FAILED"}
)

// 5xx Server Errors
var (
	ErrInternalServerError = HTTPError{Code: http.StatusInternalServerError, Key: "INTERNAL_ERROR"}
	ErrServiceUnavailable  = HTTPError{Code: http.StatusServiceUnavailable, Key: "SERVICE_UNAVAILABLE"}
)
