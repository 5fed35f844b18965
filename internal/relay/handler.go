package relay

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/yourorg/rentalhub/internal/domain"
	"github.com/yourorg/rentalhub/internal/observability/metrics"
	"github.com/yourorg/rentalhub/internal/security/auth"
	"github.com/yourorg/rentalhub/internal/service"
)

// Handler upgrades GET /ws connections and routes inbound frames through
// the chat service.
type Handler struct {
	hub         *Hub
	chatService *service.ChatService
	tokens      *auth.TokenManager
	userRepo    domain.UserRepository
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewHandler creates a new websocket handler. allowedOrigins of ["*"]
// accepts any origin.
func NewHandler(
	hub *Hub,
	chatService *service.ChatService,
	tokens *auth.TokenManager,
	userRepo domain.UserRepository,
	allowedOrigins []string,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		hub:         hub,
		chatService: chatService,
		tokens:      tokens,
		userRepo:    userRepo,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// ServeWS handles GET /ws?token=. Browsers cannot set headers on the
// websocket handshake, so the token rides in the query string.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
		return
	}

	user, err := h.userRepo.GetByID(claims.UserID)
	if err != nil {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
		return
	}
	if user.Suspended {
		http.Error(w, `{"error":"account suspended"}`, http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(h.hub, conn, user.ID, h.logger)
	h.hub.register <- client

	metrics.IncrementConnections()
	go func() {
		client.writePump()
		metrics.DecrementConnections()
	}()
	go client.readPump(h.handleFrame)
}

// handleFrame processes one inbound frame. Failures are reported back on
// the same connection and never tear it down.
func (h *Handler) handleFrame(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.sendFrame(errorFrame("invalid frame"))
		return
	}
	if env.Action != "message" {
		c.sendFrame(errorFrame("unknown action"))
		return
	}

	msg, err := h.chatService.Send(c.userID, env.Data.ReceiverID, env.Data.RentalID, env.Data.ParentID, env.Data.Message)
	if err != nil {
		metrics.ObserveChatMessage("websocket", "rejected")
		c.sendFrame(errorFrame(err.Error()))
		return
	}

	metrics.ObserveChatMessage("websocket", "ok")
	h.hub.Deliver(newMessageFrame(msg), msg.SenderID, msg.ReceiverID)
}
