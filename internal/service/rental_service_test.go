package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/rentalhub/internal/domain"
)

func floatPtr(f float64) *float64 { return &f }

func newTestRentalService(rentals *memRentalRepo) *RentalService {
	return NewRentalService(rentals, nil, time.Minute, 50, nil)
}

func testLandlord(users *memUserRepo, approved bool) *domain.User {
	u := &domain.User{
		Email:    "landlord@example.com",
		Role:     domain.RoleLandlord,
		Approved: approved,
	}
	users.Create(u)
	return u
}

func TestCreateRentalRequiresLandlordRole(t *testing.T) {
	users := newMemUserRepo()
	svc := newTestRentalService(newMemRentalRepo())

	client := &domain.User{Email: "c@example.com", Role: domain.RoleClient, Approved: true}
	users.Create(client)

	_, err := svc.Create(client, CreateRentalInput{
		Title: "Flat", Mode: domain.ModeRental, Price: floatPtr(500),
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden for client, got %v", err)
	}
}

func TestCreateRentalRequiresApprovedAccount(t *testing.T) {
	users := newMemUserRepo()
	svc := newTestRentalService(newMemRentalRepo())

	pending := testLandlord(users, false)
	_, err := svc.Create(pending, CreateRentalInput{
		Title: "Flat", Mode: domain.ModeRental, Price: floatPtr(500),
	})
	if err == nil {
		t.Error("expected unapproved landlord to be rejected")
	}
}

func TestCreateRentalModeValidation(t *testing.T) {
	users := newMemUserRepo()
	svc := newTestRentalService(newMemRentalRepo())
	landlord := testLandlord(users, true)

	// rental mode needs a monthly price
	if _, err := svc.Create(landlord, CreateRentalInput{Title: "Flat", Mode: domain.ModeRental}); err == nil {
		t.Error("expected rental without price to be rejected")
	}
	// lodging mode needs a nightly price
	if _, err := svc.Create(landlord, CreateRentalInput{Title: "Room", Mode: domain.ModeLodging}); err == nil {
		t.Error("expected lodging without nightly price to be rejected")
	}
	if _, err := svc.Create(landlord, CreateRentalInput{Title: "Flat", Mode: "timeshare", Price: floatPtr(1)}); err == nil {
		t.Error("expected unknown mode to be rejected")
	}

	rental, err := svc.Create(landlord, CreateRentalInput{
		Title: "Room", Mode: domain.ModeLodging, NightlyPrice: floatPtr(40),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rental.Status != domain.StatusAvailable {
		t.Errorf("expected new listing to be available, got %s", rental.Status)
	}
	if rental.Approved {
		t.Error("landlord listings should start unapproved")
	}
}

func TestAdminListingsAreApprovedImmediately(t *testing.T) {
	users := newMemUserRepo()
	svc := newTestRentalService(newMemRentalRepo())

	admin := &domain.User{Email: "admin@example.com", Role: domain.RoleAdmin, Approved: true}
	users.Create(admin)

	rental, err := svc.Create(admin, CreateRentalInput{
		Title: "Office", Mode: domain.ModeRental, Price: floatPtr(900),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !rental.Approved {
		t.Error("admin listings should be approved immediately")
	}
}

func TestUpdateAndDeleteEnforceOwnership(t *testing.T) {
	users := newMemUserRepo()
	rentals := newMemRentalRepo()
	svc := newTestRentalService(rentals)

	owner := testLandlord(users, true)
	other := &domain.User{Email: "other@example.com", Role: domain.RoleLandlord, Approved: true}
	users.Create(other)
	admin := &domain.User{Email: "admin@example.com", Role: domain.RoleAdmin, Approved: true}
	users.Create(admin)

	rental, err := svc.Create(owner, CreateRentalInput{
		Title: "Flat", Mode: domain.ModeRental, Price: floatPtr(500),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	newTitle := "Bigger flat"
	if _, err := svc.Update(other, rental.ID, domain.RentalUpdate{Title: &newTitle}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-owner update, got %v", err)
	}
	if err := svc.Delete(other, rental.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-owner delete, got %v", err)
	}

	updated, err := svc.Update(owner, rental.ID, domain.RentalUpdate{Title: &newTitle})
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if updated.Title != newTitle {
		t.Errorf("expected title %q, got %q", newTitle, updated.Title)
	}

	// admins may always edit and delete
	if err := svc.Delete(admin, rental.ID); err != nil {
		t.Errorf("admin delete failed: %v", err)
	}
	if _, err := svc.Get(rental.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestBookRejectsAlreadyBooked(t *testing.T) {
	users := newMemUserRepo()
	svc := newTestRentalService(newMemRentalRepo())

	owner := testLandlord(users, true)
	client := &domain.User{Email: "guest@example.com", Role: domain.RoleClient, Approved: true}
	users.Create(client)

	rental, err := svc.Create(owner, CreateRentalInput{
		Title: "Room", Mode: domain.ModeLodging, NightlyPrice: floatPtr(40),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	booked, err := svc.Book(client, rental.ID)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if booked.Status != domain.StatusBooked {
		t.Errorf("expected booked status, got %s", booked.Status)
	}

	if _, err := svc.Book(client, rental.ID); err == nil {
		t.Error("expected a second booking to be rejected")
	}
}

// failingRentalRepo simulates a store outage on the status write.
type failingRentalRepo struct {
	*memRentalRepo
}

func (r *failingRentalRepo) SetStatus(id int64, status string) (*domain.Rental, error) {
	return nil, errors.New("pq: connection reset by peer")
}

func TestBookCollapsesStoreFailureToInternal(t *testing.T) {
	users := newMemUserRepo()
	rentals := &failingRentalRepo{memRentalRepo: newMemRentalRepo()}
	svc := NewRentalService(rentals, nil, time.Minute, 50, nil)

	owner := testLandlord(users, true)
	rental, err := svc.Create(owner, CreateRentalInput{
		Title: "Flat", Mode: domain.ModeRental, Price: floatPtr(500),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	client := &domain.User{Email: "guest2@example.com", Role: domain.RoleClient, Approved: true}
	users.Create(client)

	_, err = svc.Book(client, rental.ID)
	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if strings.Contains(err.Error(), "connection reset") {
		t.Error("driver error text leaked to the caller")
	}
}

func TestNearbyValidatesCoordinatesAndClampsRadius(t *testing.T) {
	rentals := newMemRentalRepo()
	svc := newTestRentalService(rentals)

	if _, err := svc.Nearby(91, 0, 10); err == nil {
		t.Error("expected out-of-range latitude to be rejected")
	}
	if _, err := svc.Nearby(0, 181, 10); err == nil {
		t.Error("expected out-of-range longitude to be rejected")
	}
	// enormous radius is clamped, not rejected
	if _, err := svc.Nearby(0, 0, 10000); err != nil {
		t.Errorf("expected clamped radius to succeed, got %v", err)
	}
}

func TestNearbyExcludesBookedListings(t *testing.T) {
	users := newMemUserRepo()
	rentals := newMemRentalRepo()
	svc := newTestRentalService(rentals)

	owner := testLandlord(users, true)
	admin := &domain.User{Email: "mod@example.com", Role: domain.RoleAdmin, Approved: true}
	users.Create(admin)

	makeListing := func(title string) *domain.Rental {
		r, err := svc.Create(owner, CreateRentalInput{
			Title: title, Mode: domain.ModeRental, Price: floatPtr(400),
			Latitude: floatPtr(-15.4), Longitude: floatPtr(28.3),
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		r.Approved = true
		return r
	}

	open := makeListing("Open flat")
	taken := makeListing("Taken flat")
	if _, err := svc.Book(admin, taken.ID); err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	nearby, err := svc.Nearby(-15.4, 28.3, 10)
	if err != nil {
		t.Fatalf("Nearby failed: %v", err)
	}
	if len(nearby) != 1 || nearby[0].ID != open.ID {
		t.Fatalf("expected only the open listing, got %d results", len(nearby))
	}
}

func TestListFiltersUnapprovedForPublicSurface(t *testing.T) {
	users := newMemUserRepo()
	rentals := newMemRentalRepo()
	svc := newTestRentalService(rentals)

	owner := testLandlord(users, true)
	approved, err := svc.Create(owner, CreateRentalInput{
		Title: "Approved flat", Mode: domain.ModeRental, Price: floatPtr(500),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := rentals.SetApproved(approved.ID); err != nil {
		t.Fatalf("SetApproved failed: %v", err)
	}
	if _, err := svc.Create(owner, CreateRentalInput{
		Title: "Pending flat", Mode: domain.ModeRental, Price: floatPtr(600),
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	listed, err := svc.List(domain.RentalFilter{ApprovedOnly: true})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != approved.ID {
		t.Errorf("expected only the approved listing, got %d results", len(listed))
	}

	// the owner sees both through Mine
	mine, err := svc.Mine(owner)
	if err != nil {
		t.Fatalf("Mine failed: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("expected 2 owned listings, got %d", len(mine))
	}
}
