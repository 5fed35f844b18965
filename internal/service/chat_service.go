package service

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/yourorg/rentalhub/internal/domain"
)

const recentMessageLimit = 20

// ChatService persists and retrieves chat messages. Both the REST surface
// and the websocket relay send through here.
type ChatService struct {
	messageRepo domain.MessageRepository
	userRepo    domain.UserRepository
	rentalRepo  domain.RentalRepository
	logger      *slog.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	messageRepo domain.MessageRepository,
	userRepo domain.UserRepository,
	rentalRepo domain.RentalRepository,
	logger *slog.Logger,
) *ChatService {
	if logger == nil {
		logger = slog.Default()
	}

	return &ChatService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		rentalRepo:  rentalRepo,
		logger:      logger,
	}
}

// Send validates and persists a directed message. Sender and receiver must
// resolve to existing users; the rental scope, when given, must exist.
func (s *ChatService) Send(senderID, receiverID int64, rentalID, parentID *int64, body string) (*domain.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, errors.New("message body is required")
	}
	if senderID == receiverID {
		return nil, errors.New("cannot message yourself")
	}
	if _, err := s.userRepo.GetByID(receiverID); err != nil {
		return nil, errors.New("receiver not found")
	}
	if rentalID != nil {
		if _, err := s.rentalRepo.GetByID(*rentalID); err != nil {
			return nil, errors.New("rental not found")
		}
	}

	message := &domain.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		RentalID:   rentalID,
		ParentID:   parentID,
		Body:       body,
	}

	if err := s.messageRepo.Create(message); err != nil {
		s.logger.Error("failed to persist message",
			slog.Int64("sender_id", senderID),
			slog.Int64("receiver_id", receiverID),
			slog.String("error", err.Error()),
		)
		return nil, domain.ErrInternal
	}

	return message, nil
}

// History returns a rental's conversation in ascending time order
func (s *ChatService) History(rentalID int64) ([]*domain.Message, error) {
	messages, err := s.messageRepo.ListByRental(rentalID)
	if err != nil {
		return nil, repoError(err)
	}
	return messages, nil
}

// Recent returns the newest messages involving the user, newest first
func (s *ChatService) Recent(userID int64) ([]*domain.Message, error) {
	messages, err := s.messageRepo.RecentForUser(userID, recentMessageLimit)
	if err != nil {
		return nil, repoError(err)
	}
	return messages, nil
}
