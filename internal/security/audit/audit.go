package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger records admin moderation and account actions as structured log
// entries.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, actorID int64, action, resource string, resourceID int64, status, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.Int64("resource_id", resourceID),
		slog.Int64("actor_id", actorID),
		slog.String("status", status),
		slog.String("details", details),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogUserModeration(ctx context.Context, adminID, userID int64, action, status string) {
	al.LogAction(ctx, adminID, action, "user", userID, status, "")
}

func (al *Logger) LogRentalModeration(ctx context.Context, adminID, rentalID int64, action, status string) {
	al.LogAction(ctx, adminID, action, "rental", rentalID, status, "")
}

func (al *Logger) LogDenied(ctx context.Context, actorID int64, reason string) {
	al.LogAction(ctx, actorID, "access_denied", "api", 0, "denied", reason)
}
