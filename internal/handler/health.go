package handler

import (
	"log/slog"
	"net/http"
)

// Pinger is the slice of the store the health endpoint needs.
type Pinger interface {
	Ping() error
}

// HealthHandler reports whether the store is reachable.
type HealthHandler struct {
	store  Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(store Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// HandleHealth pings the store.
//
// HTTP: GET /api/health
// 200 when the database answers, 500 otherwise. The error detail stays in
// the server log.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(); err != nil {
		h.logger.Error("health check: store unreachable", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "database connection failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "database connection successful",
	})
}
