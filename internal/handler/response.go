// Package handler provides the HTTP handlers of the TradeHub REST API.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/service"
)

// Error codes of API error responses.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccessDenied       = "ACCESS_DENIED"
	CodeNotFound           = "NOT_FOUND"
	CodeDuplicate          = "DUPLICATE"
	CodeLockedOut          = "LOCKED_OUT"
	CodeBusy               = "BUSY"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
)

// APIError is the error object of an error response.
type APIError struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Fields     []string `json:"fields,omitempty"`
	Missing    []string `json:"missing,omitempty"`
	RetryAfter int      `json:"retryAfter,omitempty"`
}

type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// mapError converts a service error into an HTTP status and error body.
func mapError(err error) (int, *APIError) {
	var (
		locked *domain.LockedOutError
		weak   *domain.WeakPasswordError
		valid  *domain.ValidationError
	)

	switch {
	case errors.As(err, &locked):
		secs := int(math.Ceil(locked.RetryAfter.Seconds()))
		return http.StatusLocked, &APIError{Code: CodeLockedOut, Message: domain.ErrLockedOut.Error(), RetryAfter: secs}
	case errors.As(err, &weak):
		return http.StatusBadRequest, &APIError{Code: CodeWeakPassword, Message: err.Error(), Missing: weak.Missing}
	case errors.As(err, &valid):
		return http.StatusBadRequest, &APIError{Code: CodeValidation, Message: err.Error(), Fields: valid.Fields}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, &APIError{Code: CodeValidation, Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, &APIError{Code: CodeInvalidCredentials, Message: err.Error()}
	case errors.Is(err, domain.ErrAccessDenied),
		errors.Is(err, domain.ErrUserInactive),
		errors.Is(err, domain.ErrAdminInactive):
		return http.StatusForbidden, &APIError{Code: CodeAccessDenied, Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, &APIError{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, &APIError{Code: CodeDuplicate, Message: err.Error()}
	case errors.Is(err, service.ErrBusy):
		return http.StatusServiceUnavailable, &APIError{Code: CodeBusy, Message: service.ErrBusy.Error()}
	default:
		return http.StatusInternalServerError, &APIError{Code: CodeInternal, Message: service.ErrInternalError.Error()}
	}
}

// writeError writes the mapped error. Server errors are logged; their
// details never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	status, body := mapError(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}
	if body.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(body.RetryAfter))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: body})
}

// decodeJSON reads one JSON value from the body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("request body is required")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.NewValidationError("request body is too large")
		}
		return domain.NewValidationError("malformed JSON body")
	}
	return nil
}

// queryInt parses an integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError("must be an integer", name)
	}
	return n, nil
}
