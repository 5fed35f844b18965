package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/yourorg/rentalhub/internal/domain"
)

func registerTestClient(t *testing.T, hub *Hub, userID int64) *Client {
	t.Helper()
	client := &Client{
		hub:    hub,
		send:   make(chan []byte, 8),
		userID: userID,
	}
	hub.register <- client
	return client
}

func recvFrame(t *testing.T, c *Client) Outbound {
	t.Helper()
	select {
	case payload := <-c.send:
		var frame Outbound
		if err := json.Unmarshal(payload, &frame); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		return frame
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return Outbound{}
	}
}

func TestDeliverReachesOnlyAddressedUsers(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	sender := registerTestClient(t, hub, 1)
	receiver := registerTestClient(t, hub, 2)
	bystander := registerTestClient(t, hub, 3)

	msg := &domain.Message{ID: 10, SenderID: 1, ReceiverID: 2, Body: "hello"}
	hub.Deliver(newMessageFrame(msg), 1, 2)

	for _, c := range []*Client{sender, receiver} {
		frame := recvFrame(t, c)
		if frame.Type != "new_message" {
			t.Errorf("expected new_message frame, got %s", frame.Type)
		}
		if frame.Message == nil || frame.Message.ID != 10 {
			t.Error("frame does not carry the message")
		}
	}

	select {
	case payload := <-bystander.send:
		t.Errorf("bystander received a frame: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeliverFansOutToAllConnectionsOfAUser(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	first := registerTestClient(t, hub, 7)
	second := registerTestClient(t, hub, 7)

	msg := &domain.Message{ID: 1, SenderID: 2, ReceiverID: 7, Body: "hi"}
	hub.Deliver(newMessageFrame(msg), 7)

	if frame := recvFrame(t, first); frame.Type != "new_message" {
		t.Errorf("unexpected frame type %s", frame.Type)
	}
	if frame := recvFrame(t, second); frame.Type != "new_message" {
		t.Errorf("unexpected frame type %s", frame.Type)
	}
}

func TestDeliverToOfflineUserIsDropped(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	online := registerTestClient(t, hub, 1)

	msg := &domain.Message{ID: 1, SenderID: 1, ReceiverID: 99, Body: "hi"}
	hub.Deliver(newMessageFrame(msg), 1, 99)

	// the online participant still gets the frame
	if frame := recvFrame(t, online); frame.Type != "new_message" {
		t.Errorf("unexpected frame type %s", frame.Type)
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	client := registerTestClient(t, hub, 5)
	hub.unregister <- client

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected the send channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}
