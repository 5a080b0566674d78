package helpers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"teamcalendar/internal/domain"
	"teamcalendar/internal/lib/logger/sl"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeNotFound      = "not_found"
	ErrCodeInternalError = "internal_error"
)

// APIError is the error object in the standardized API response envelope.
// swagger:model APIError
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse is the standardized envelope for API responses.
// On success: Success is true and Data is set. On error: Success is false and Error is set.
// swagger:model APIResponse
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// ConflictResponse is the body of every 409. Conflicts is empty for non-booking conflicts.
// swagger:model ConflictResponse
type ConflictResponse struct {
	Error     bool              `json:"error"`
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Conflicts []domain.Conflict `json:"conflicts"`
}

// WriteJSON sets Content-Type to application/json, writes statusCode and encodes body as is.
func WriteJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSONSuccess writes an APIResponse with Success set and the given data.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	WriteJSON(w, statusCode, APIResponse{Success: true, Data: data})
}

// WriteJSONError writes an APIResponse with the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSON(w, statusCode, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
	})
}

// WriteConflict writes a 409 carrying the code, message and conflict list of e.
func WriteConflict(w http.ResponseWriter, e *domain.ConflictError) {
	conflicts := e.Conflicts
	if conflicts == nil {
		conflicts = []domain.Conflict{}
	}
	WriteJSON(w, http.StatusConflict, ConflictResponse{
		Error:     true,
		Code:      e.Code,
		Message:   e.Message,
		Conflicts: conflicts,
	})
}

// WriteError maps a service error onto the HTTP taxonomy. Unexpected errors are logged and
// answered with a generic 500 so no store detail reaches the caller.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &conflict):
		WriteConflict(w, conflict)
	case errors.Is(err, domain.ErrConflict):
		WriteConflict(w, &domain.ConflictError{Code: domain.ConflictCodeEvent, Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("method", r.Method),
			sl.Err(err),
		)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
