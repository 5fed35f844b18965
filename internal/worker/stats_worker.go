package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/rentalhub/internal/observability/metrics"
	"github.com/yourorg/rentalhub/internal/service"
)

// StatsWorker periodically refreshes the counts snapshot and pushes it into
// the Prometheus gauges, so the dashboards stay warm even when nobody hits
// the public stats endpoint.
type StatsWorker struct {
	statsService *service.StatsService
	logger       *slog.Logger
	interval     time.Duration
}

// NewStatsWorker creates a new stats worker
func NewStatsWorker(statsService *service.StatsService, logger *slog.Logger, interval time.Duration) *StatsWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}

	return &StatsWorker{
		statsService: statsService,
		logger:       logger,
		interval:     interval,
	}
}

// Start begins the refresh loop. Runs until the context is cancelled.
func (w *StatsWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("stats worker started", slog.Duration("interval", w.interval))

	w.refresh()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stats worker stopped")
			return
		case <-ticker.C:
			w.refresh()
		}
	}
}

func (w *StatsWorker) refresh() {
	counts, err := w.statsService.Refresh()
	if err != nil {
		w.logger.Error("stats refresh failed", slog.String("error", err.Error()))
		return
	}

	metrics.SetActiveRentals(counts.ActiveRentals)
	metrics.SetRegisteredUsers(counts.Users)
}
