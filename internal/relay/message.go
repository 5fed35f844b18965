package relay

import "github.com/yourorg/rentalhub/internal/domain"

// Envelope is the inbound frame. Only action "message" is recognized; the
// sender is always the authenticated connection, never the payload.
type Envelope struct {
	Action string       `json:"action"`
	Data   EnvelopeData `json:"data"`
}

// EnvelopeData carries a message send request over the socket
type EnvelopeData struct {
	ReceiverID int64  `json:"receiver_id"`
	RentalID   *int64 `json:"rental_id"`
	ParentID   *int64 `json:"parent_id"`
	Message    string `json:"message"`
}

// Outbound frames pushed to connected participants.
type Outbound struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func newMessageFrame(msg *domain.Message) Outbound {
	return Outbound{Type: "new_message", Message: msg}
}

func errorFrame(message string) Outbound {
	return Outbound{Type: "error", Error: message}
}
