package handler

// RESPONSE HELPERS:
// These functions standardise how handlers send JSON responses and errors.
//
// Every error response has the same shape:
//
//	{"success": false, "error": "validation_error", "message": "email is required"}
//
// so the client pages can always read .message. Success responses carry
// "success": true plus endpoint-specific fields.
//
// writeError is where domain errors (from the service layer) get translated
// to HTTP. The service returns apperror sentinels; only this function knows
// which status code each one maps to. Unknown errors become a generic 500 —
// raw store errors, stack traces and secrets must never reach the client.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/medora-app/server/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Success bool   `json:"success"` // always false
	Error   string `json:"error"`   // Machine-readable error type (e.g. "not_found")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body — once Encode writes,
// the headers are on the wire.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent — all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errMissingClaims covers the should-never-happen case of a protected
// route reached without claims in the context (RequireAuth guarantees
// them). Logged as an error because it means a route was wired wrong.
func errMissingClaims(logger *slog.Logger, r *http.Request) error {
	logger.Error("no auth claims on protected route",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	return apperror.Unauthorized("valid authentication required")
}

// writeError maps a domain error to the appropriate HTTP status and sends it.
//
// errors.Is walks the whole wrap chain, so a service error like
// fmt.Errorf("creating user: %w", apperror.Conflict(...)) still matches.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError

	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	// Unknown error — generic 500. The detail was already logged where it
	// happened; the client gets nothing internal.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an internal error occurred",
	})
}
