// Package httputil writes the JSON envelope every endpoint responds with.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	apperrors "github.com/CindyCUI423/Recam-sub000/pkg/errors"
	"github.com/CindyCUI423/Recam-sub000/pkg/logger"
	"github.com/CindyCUI423/Recam-sub000/pkg/validator"
)

// Response is the envelope: exactly one of Data or Error is set.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of the envelope.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON encodes v with the given status. Encoding errors are dropped;
// the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteFailure writes an error envelope with an explicit code.
func WriteFailure(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, Response{Error: &ErrorResponse{Code: code, Message: message}})
}

// classify maps err to a status, a stable code and a client-safe message.
// Only AppErrors and the invalid-input sentinel expose their own text.
func classify(err error) (int, string, string) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Code, appErr.Message
	}

	switch status := apperrors.HTTPStatus(err); status {
	case http.StatusNotFound:
		return status, "NOT_FOUND", "resource not found"
	case http.StatusConflict:
		return status, "ALREADY_EXISTS", "resource already exists"
	case http.StatusBadRequest:
		return status, "INVALID_INPUT", err.Error()
	case http.StatusUnauthorized:
		return status, "UNAUTHORIZED", "unauthorized"
	case http.StatusForbidden:
		return status, "FORBIDDEN", "forbidden"
	case http.StatusServiceUnavailable:
		return status, "SERVICE_UNAVAILABLE", "service unavailable"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// WriteError writes err as an error envelope carrying the request's
// correlation id. 5xx errors are logged with the request-scoped logger, or
// fallback when none is mounted.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	status, code, message := classify(err)

	if status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
		)
	}

	WriteJSON(w, status, Response{Error: &ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}})
}

// WriteValidationError writes a 400 with per-field messages when err came
// from the validator, or a plain INVALID_INPUT otherwise.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if !errors.As(err, &valErr) {
		WriteFailure(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	WriteJSON(w, http.StatusBadRequest, Response{Error: &ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "request validation failed",
		Fields:  valErr.Fields(),
	}})
}

// ParseUUID parses a uuid path parameter, writing a 400 INVALID_PARAMETER
// and returning false when it is malformed.
func ParseUUID(w http.ResponseWriter, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteFailure(w, http.StatusBadRequest, "INVALID_PARAMETER", "invalid UUID: "+param)
		return uuid.Nil, false
	}
	return id, true
}

// ParseID parses a positive int64 path parameter, writing a 400 INVALID_ID
// and returning false otherwise.
func ParseID(w http.ResponseWriter, param string) (int64, bool) {
	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil || id <= 0 {
		WriteFailure(w, http.StatusBadRequest, "INVALID_ID", "invalid id: "+param)
		return 0, false
	}
	return id, true
}
