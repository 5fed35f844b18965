package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/rentalhub/pkg/database"
)

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	pool   *database.ConnectionPool
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(pool *database.ConnectionPool, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthHandler{
		pool:   pool,
		logger: logger,
	}
}

// Live handles GET /healthz
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /readyz. Ready means the database answers a ping.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.Health(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
