package handler

import (
	"errors"
	"net/http"
)

// ErrNilResponse indicates a handler returned nil instead of a Response.
var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError carries an HTTP status code and a stable machine-readable key.
// Services return domain sentinels; the transport layer converts them to
// HTTPError before rendering.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string {
	return e.Key
}

// NewHTTPError creates an HTTPError with the given status code and key.
func NewHTTPError(code int, key string) HTTPError {
	return HTTPError{Code: code, Key: key}
}

// Common transport errors.
var (
	ErrUnauthorized       = NewHTTPError(http.StatusUnauthorized, "unauthorized")
	ErrForbidden          = NewHTTPError(http.StatusForbidden, "forbidden")
	ErrNotFound           = NewHTTPError(http.StatusNotFound, "not_found")
	ErrConflict           = NewHTTPError(http.StatusConflict, "conflict")
	ErrUnprocessable      = NewHTTPError(http.StatusUnprocessableEntity, "unprocessable_entity")
	ErrTooManyRequests    = NewHTTPError(http.StatusTooManyRequests, "too_many_requests")
	ErrServiceUnavailable = NewHTTPError(http.StatusServiceUnavailable, "service_unavailable")
	ErrInternal           = NewHTTPError(http.StatusInternalServerError, "internal_error")
)

// ValidationError maps field names to their validation failure messages.
type ValidationError map[string][]string

func (e ValidationError) Error() string {
	return "validation failed"
}
