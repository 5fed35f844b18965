package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/yourorg/rentalhub/internal/domain"
)

func newChatFixture(t *testing.T) (*ChatService, *memUserRepo, *memRentalRepo) {
	t.Helper()
	users := newMemUserRepo()
	rentals := newMemRentalRepo()
	svc := NewChatService(newMemMessageRepo(), users, rentals, nil)
	return svc, users, rentals
}

func TestSendValidation(t *testing.T) {
	svc, users, _ := newChatFixture(t)

	alice := &domain.User{Email: "alice@example.com", Role: domain.RoleClient}
	bob := &domain.User{Email: "bob@example.com", Role: domain.RoleLandlord}
	users.Create(alice)
	users.Create(bob)

	if _, err := svc.Send(alice.ID, bob.ID, nil, nil, "   "); err == nil {
		t.Error("expected blank body to be rejected")
	}
	if _, err := svc.Send(alice.ID, alice.ID, nil, nil, "hi me"); err == nil {
		t.Error("expected self-message to be rejected")
	}
	if _, err := svc.Send(alice.ID, 999, nil, nil, "hello"); err == nil {
		t.Error("expected unknown receiver to be rejected")
	}

	missingRental := int64(42)
	if _, err := svc.Send(alice.ID, bob.ID, &missingRental, nil, "about the flat"); err == nil {
		t.Error("expected unknown rental scope to be rejected")
	}

	msg, err := svc.Send(alice.ID, bob.ID, nil, nil, "hello")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if msg.ID == 0 {
		t.Error("expected the stored message to have an id")
	}
	if msg.SenderID != alice.ID || msg.ReceiverID != bob.ID {
		t.Error("stored message carries the wrong participants")
	}
}

type failingMessageRepo struct {
	*memMessageRepo
}

func (r *failingMessageRepo) Create(m *domain.Message) error {
	return errors.New("pq: deadlock detected")
}

func TestSendCollapsesStoreFailureToInternal(t *testing.T) {
	users := newMemUserRepo()
	svc := NewChatService(&failingMessageRepo{memMessageRepo: newMemMessageRepo()}, users, newMemRentalRepo(), nil)

	alice := &domain.User{Email: "alice@example.com", Role: domain.RoleClient}
	bob := &domain.User{Email: "bob@example.com", Role: domain.RoleLandlord}
	users.Create(alice)
	users.Create(bob)

	_, err := svc.Send(alice.ID, bob.ID, nil, nil, "hello")
	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}

func TestHistoryReturnsRentalThreadInOrder(t *testing.T) {
	svc, users, rentals := newChatFixture(t)

	alice := &domain.User{Email: "alice@example.com", Role: domain.RoleClient}
	bob := &domain.User{Email: "bob@example.com", Role: domain.RoleLandlord}
	users.Create(alice)
	users.Create(bob)

	rental := &domain.Rental{OwnerID: bob.ID, Title: "Flat", Mode: domain.ModeRental, Status: domain.StatusAvailable}
	rentals.Create(rental)

	first, err := svc.Send(alice.ID, bob.ID, &rental.ID, nil, "is it free?")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if _, err := svc.Send(bob.ID, alice.ID, &rental.ID, &first.ID, "yes it is"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	// off-thread message must not appear in the rental history
	if _, err := svc.Send(alice.ID, bob.ID, nil, nil, "unrelated"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	history, err := svc.History(rental.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages in thread, got %d", len(history))
	}
	if history[0].Body != "is it free?" || history[1].Body != "yes it is" {
		t.Error("expected ascending time order")
	}
	if history[1].ParentID == nil || *history[1].ParentID != first.ID {
		t.Error("expected the reply to reference its parent")
	}
}

func TestRecentCapsAndOrdersNewestFirst(t *testing.T) {
	svc, users, _ := newChatFixture(t)

	alice := &domain.User{Email: "alice@example.com", Role: domain.RoleClient}
	bob := &domain.User{Email: "bob@example.com", Role: domain.RoleLandlord}
	users.Create(alice)
	users.Create(bob)

	for i := 0; i < recentMessageLimit+5; i++ {
		if _, err := svc.Send(alice.ID, bob.ID, nil, nil, fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
	}

	recent, err := svc.Recent(bob.ID)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != recentMessageLimit {
		t.Fatalf("expected %d messages, got %d", recentMessageLimit, len(recent))
	}
	if recent[0].Body != fmt.Sprintf("message %d", recentMessageLimit+4) {
		t.Errorf("expected newest message first, got %q", recent[0].Body)
	}
}
