package service

import (
	"context"
	"log/slog"

	"github.com/yourorg/rentalhub/internal/domain"
	"github.com/yourorg/rentalhub/internal/security/audit"
)

// AdminService owns moderation: user approval and suspension, listing
// approval, and the admin views over users and rentals.
type AdminService struct {
	userRepo   domain.UserRepository
	rentalRepo domain.RentalRepository
	statsRepo  domain.StatsRepository
	rentals    *RentalService
	audit      *audit.Logger
	logger     *slog.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(
	userRepo domain.UserRepository,
	rentalRepo domain.RentalRepository,
	statsRepo domain.StatsRepository,
	rentals *RentalService,
	auditLogger *audit.Logger,
	logger *slog.Logger,
) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AdminService{
		userRepo:   userRepo,
		rentalRepo: rentalRepo,
		statsRepo:  statsRepo,
		rentals:    rentals,
		audit:      auditLogger,
		logger:     logger,
	}
}

// ListUsers returns every account, newest first
func (s *AdminService) ListUsers() ([]*domain.User, error) {
	return s.userRepo.List()
}

// PendingUsers returns accounts awaiting approval
func (s *AdminService) PendingUsers() ([]*domain.User, error) {
	return s.userRepo.ListPending()
}

// ApproveUser sets approved=true, suspended=false in one statement
func (s *AdminService) ApproveUser(adminID, userID int64) (*domain.User, error) {
	user, err := s.userRepo.SetModeration(userID, true, false)
	if err != nil {
		s.audit.LogUserModeration(context.Background(), adminID, userID, "approve", "failed")
		return nil, repoError(err)
	}
	s.audit.LogUserModeration(context.Background(), adminID, userID, "approve", "ok")
	return user, nil
}

// SuspendUser sets suspended=true, approved=false in one statement, so the
// two flags can never be observed half flipped.
func (s *AdminService) SuspendUser(adminID, userID int64) (*domain.User, error) {
	user, err := s.userRepo.SetModeration(userID, false, true)
	if err != nil {
		s.audit.LogUserModeration(context.Background(), adminID, userID, "suspend", "failed")
		return nil, repoError(err)
	}
	s.audit.LogUserModeration(context.Background(), adminID, userID, "suspend", "ok")
	return user, nil
}

// DeleteUser removes an account
func (s *AdminService) DeleteUser(adminID, userID int64) error {
	if err := s.userRepo.Delete(userID); err != nil {
		s.audit.LogUserModeration(context.Background(), adminID, userID, "delete", "failed")
		return repoError(err)
	}
	s.audit.LogUserModeration(context.Background(), adminID, userID, "delete", "ok")
	return nil
}

// ListRentals returns every listing regardless of state
func (s *AdminService) ListRentals() ([]*domain.Rental, error) {
	return s.rentalRepo.List(domain.RentalFilter{})
}

// PendingRentals returns listings awaiting moderation
func (s *AdminService) PendingRentals() ([]*domain.Rental, error) {
	return s.rentalRepo.ListPending()
}

// ApproveRental marks a listing as moderated and visible
func (s *AdminService) ApproveRental(adminID, rentalID int64) (*domain.Rental, error) {
	rental, err := s.rentalRepo.SetApproved(rentalID)
	if err != nil {
		s.audit.LogRentalModeration(context.Background(), adminID, rentalID, "approve", "failed")
		return nil, repoError(err)
	}
	s.audit.LogRentalModeration(context.Background(), adminID, rentalID, "approve", "ok")
	// Approval changes public visibility, so cached listing queries are stale.
	s.rentals.InvalidateCache()
	return rental, nil
}

// Stats returns the aggregate counts for the admin dashboard
func (s *AdminService) Stats() (*domain.Counts, error) {
	return s.statsRepo.Counts()
}
