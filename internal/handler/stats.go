package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/rentalhub/internal/service"
)

// StatsHandler serves the public counts endpoint
type StatsHandler struct {
	statsService *service.StatsService
	logger       *slog.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *service.StatsService, logger *slog.Logger) *StatsHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &StatsHandler{
		statsService: statsService,
		logger:       logger,
	}
}

// Counts handles GET /api/stats/counts
func (h *StatsHandler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.statsService.Counts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
