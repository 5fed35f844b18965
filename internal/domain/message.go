package domain

import "time"

// Message is a directed chat message, optionally scoped to a rental and
// threaded via ParentID. Messages are append-only.
type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	RentalID   *int64    `json:"rental_id,omitempty"`
	ParentID   *int64    `json:"parent_id,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessageRepository defines data access for messages
type MessageRepository interface {
	// Create persists the message and fills in ID and CreatedAt.
	Create(message *Message) error
	// ListByRental returns the rental's conversation in ascending time order.
	ListByRental(rentalID int64) ([]*Message, error)
	// RecentForUser returns the newest messages sent or received by the user,
	// newest first.
	RecentForUser(userID int64, limit int) ([]*Message, error)
}
