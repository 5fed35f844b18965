package relay

import (
	"encoding/json"
	"log/slog"
)

type delivery struct {
	userIDs []int64
	payload []byte
}

// Hub keeps the registry of live connections keyed by user id and delivers
// frames to the addressed users only. A user may hold several connections
// at once; every one of them receives the frame.
type Hub struct {
	clients    map[int64]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}
	logger     *slog.Logger
}

// NewHub creates a new hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 64),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run owns the registry. All map access happens on this goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.logger.Info("websocket connected",
				slog.Int64("user_id", client.userID),
				slog.Int("connections", len(h.clients[client.userID])),
			)

		case client := <-h.unregister:
			if conns, ok := h.clients[client.userID]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.send)
					if len(conns) == 0 {
						delete(h.clients, client.userID)
					}
					h.logger.Info("websocket disconnected", slog.Int64("user_id", client.userID))
				}
			}

		case d := <-h.deliver:
			for _, userID := range d.userIDs {
				for client := range h.clients[userID] {
					select {
					case client.send <- d.payload:
					default:
						// slow consumer, drop the connection
						close(client.send)
						delete(h.clients[userID], client)
						if len(h.clients[userID]) == 0 {
							delete(h.clients, userID)
						}
					}
				}
			}

		case <-h.done:
			for _, conns := range h.clients {
				for client := range conns {
					close(client.send)
				}
			}
			h.clients = make(map[int64]map[*Client]bool)
			return
		}
	}
}

// Stop shuts the hub down and closes every live connection's send channel
func (h *Hub) Stop() {
	close(h.done)
}

// Deliver pushes a frame to every live connection of the given users.
// Users without a live connection are skipped; the message is already
// persisted, so they pick it up from history.
func (h *Hub) Deliver(frame interface{}, userIDs ...int64) {
	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("failed to marshal frame", slog.String("error", err.Error()))
		return
	}
	select {
	case h.deliver <- delivery{userIDs: userIDs, payload: payload}:
	case <-h.done:
	}
}
