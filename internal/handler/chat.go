package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/rentalhub/internal/domain"
	"github.com/yourorg/rentalhub/internal/security/middleware"
	"github.com/yourorg/rentalhub/internal/service"
)

// ChatHandler handles the REST side of chat; the live side is the relay.
type ChatHandler struct {
	chatService *service.ChatService
	logger      *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// SendMessageRequest represents a message send request
type SendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id"`
	RentalID   *int64 `json:"rental_id"`
	ParentID   *int64 `json:"parent_id"`
	Message    string `json:"message"`
}

// Send handles POST /api/chat/send. The sender is always the authenticated
// user, never taken from the payload.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	message, err := h.chatService.Send(user.ID, req.ReceiverID, req.RentalID, req.ParentID, req.Message)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, message)
}

// History handles GET /api/chat/messages/{id}, a rental's thread ascending
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	rentalID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	messages, err := h.chatService.History(rentalID)
	if err != nil {
		h.logger.Error("failed to load chat history", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// Recent handles GET /api/chat/messages/recent/{id}. Users may only read
// their own recent messages; admins may read anyone's.
func (h *ChatHandler) Recent(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	userID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if userID != user.ID && user.Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "not authorized")
		return
	}

	messages, err := h.chatService.Recent(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	writeJSON(w, http.StatusOK, messages)
}
