// Package errors defines the typed application errors services return and
// the HTTP status each maps to.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels matched with errors.Is. Every AppError wraps one of them.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
)

// AppError is an error with a stable machine code, a client-facing message
// and the HTTP status it is reported with.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func newError(status int, code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: cause}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// NotFound is a 404 for a resource addressed by id.
func NotFound(resource, id string) *AppError {
	return newError(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("%s with id %s not found", resource, id), ErrNotFound)
}

// InvalidID is a 400 for an id that does not resolve to a live resource. It
// still matches ErrNotFound so callers can tell it apart from a denial.
func InvalidID(message string) *AppError {
	return newError(http.StatusBadRequest, "INVALID_ID", message, ErrNotFound)
}

// AlreadyExists is a 409 for a duplicate keyed by field.
func AlreadyExists(resource, field, value string) *AppError {
	return newError(http.StatusConflict, "ALREADY_EXISTS", fmt.Sprintf("%s with %s %q already exists", resource, field, value), ErrAlreadyExists)
}

// InvalidInput is a 400 for a request the service rejects.
func InvalidInput(message string) *AppError {
	return newError(http.StatusBadRequest, "INVALID_INPUT", message, ErrInvalidInput)
}

// Unauthorized is a 401.
func Unauthorized(message string) *AppError {
	return newError(http.StatusUnauthorized, "UNAUTHORIZED", message, ErrUnauthorized)
}

// Forbidden is a 403 for an authenticated principal the policy denies.
func Forbidden(message string) *AppError {
	return newError(http.StatusForbidden, "FORBIDDEN", message, ErrForbidden)
}

// Conflict is a 409 for a write that collides with current state.
func Conflict(message string) *AppError {
	return newError(http.StatusConflict, "CONFLICT", message, ErrConflict)
}

// Fatal is a 500 with a fixed operation message, returned when a write that
// must touch exactly one row touched none.
func Fatal(message string) *AppError {
	return newError(http.StatusInternalServerError, "INTERNAL_ERROR", message, ErrInternal)
}

var sentinelStatus = []struct {
	err    error
	status int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrAlreadyExists, http.StatusConflict},
	{ErrConflict, http.StatusConflict},
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrServiceUnavail, http.StatusServiceUnavailable},
}

// HTTPStatus returns the status for err: the AppError's own status, else the
// status of the first sentinel it wraps, else 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	for _, s := range sentinelStatus {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}
