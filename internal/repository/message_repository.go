package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yourorg/rentalhub/internal/domain"
	"github.com/yourorg/rentalhub/internal/store"
)

// PostgresMessageRepository implements domain.MessageRepository. Messages are
// append-only; there is no update or delete path.
type PostgresMessageRepository struct {
	store  *store.Store
	logger *slog.Logger
}

// NewPostgresMessageRepository creates a new message repository
func NewPostgresMessageRepository(s *store.Store, logger *slog.Logger) *PostgresMessageRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresMessageRepository{
		store:  s,
		logger: logger,
	}
}

func rowToMessage(r store.Row) *domain.Message {
	return &domain.Message{
		ID:         rowInt64(r, "id"),
		SenderID:   rowInt64(r, "sender_id"),
		ReceiverID: rowInt64(r, "receiver_id"),
		RentalID:   rowOptInt64(r, "rental_id"),
		ParentID:   rowOptInt64(r, "parent_id"),
		Body:       rowString(r, "body"),
		CreatedAt:  rowTime(r, "created_at"),
	}
}

// Create persists the message and fills in ID and CreatedAt
func (r *PostgresMessageRepository) Create(message *domain.Message) error {
	data := store.Row{
		"sender_id":   message.SenderID,
		"receiver_id": message.ReceiverID,
		"body":        message.Body,
	}
	if message.RentalID != nil {
		data["rental_id"] = *message.RentalID
	}
	if message.ParentID != nil {
		data["parent_id"] = *message.ParentID
	}

	row, err := r.store.Insert(context.Background(), "messages", data)
	if err != nil {
		r.logger.Error("failed to create message",
			slog.Int64("sender_id", message.SenderID),
			slog.Int64("receiver_id", message.ReceiverID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create message: %w", err)
	}

	*message = *rowToMessage(row)
	return nil
}

// ListByRental returns the rental's conversation in ascending time order
func (r *PostgresMessageRepository) ListByRental(rentalID int64) ([]*domain.Message, error) {
	rows, err := r.store.Query(context.Background(),
		`SELECT * FROM messages WHERE rental_id = $1 ORDER BY created_at ASC, id ASC`,
		rentalID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return rowsToMessages(rows), nil
}

// RecentForUser returns the newest messages involving the user, newest first
func (r *PostgresMessageRepository) RecentForUser(userID int64, limit int) ([]*domain.Message, error) {
	rows, err := r.store.Query(context.Background(),
		`SELECT * FROM messages WHERE sender_id = $1 OR receiver_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}
	return rowsToMessages(rows), nil
}

func rowsToMessages(rows []store.Row) []*domain.Message {
	messages := make([]*domain.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, rowToMessage(row))
	}
	return messages
}
