package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yourorg/rentalhub/internal/domain"
	"github.com/yourorg/rentalhub/internal/store"
)

// PostgresStatsRepository implements domain.StatsRepository
type PostgresStatsRepository struct {
	store  *store.Store
	logger *slog.Logger
}

// NewPostgresStatsRepository creates a new stats repository
func NewPostgresStatsRepository(s *store.Store, logger *slog.Logger) *PostgresStatsRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStatsRepository{
		store:  s,
		logger: logger,
	}
}

// Counts returns the aggregate table counts in one snapshot. Active rentals
// are approved listings still marked available.
func (r *PostgresStatsRepository) Counts() (*domain.Counts, error) {
	ctx := context.Background()

	users, err := r.count(ctx, `SELECT COUNT(*) FROM users`)
	if err != nil {
		return nil, err
	}
	rentals, err := r.count(ctx, `SELECT COUNT(*) FROM rentals`)
	if err != nil {
		return nil, err
	}
	active, err := r.count(ctx,
		`SELECT COUNT(*) FROM rentals WHERE status = 'available' AND approved = true`)
	if err != nil {
		return nil, err
	}
	messages, err := r.count(ctx, `SELECT COUNT(*) FROM messages`)
	if err != nil {
		return nil, err
	}

	return &domain.Counts{
		Users:         users,
		Rentals:       rentals,
		ActiveRentals: active,
		Messages:      messages,
	}, nil
}

func (r *PostgresStatsRepository) count(ctx context.Context, query string) (int64, error) {
	value, err := r.store.QueryValue(ctx, query)
	if err != nil {
		r.logger.Error("count query failed", slog.String("error", err.Error()))
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	n, ok := value.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected count type %T", value)
	}
	return n, nil
}
