package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/rentalhub/internal/domain"
)

// ListingCache is the read-through cache for listing queries. Implemented by
// the redis client; a nil cache disables caching.
type ListingCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const listingCachePrefix = "rentals:"

// RentalService owns listing rules: who may create, edit and moderate, and
// which listings the public surface exposes.
type RentalService struct {
	rentalRepo  domain.RentalRepository
	cache       ListingCache
	cacheTTL    time.Duration
	maxRadiusKm float64
	logger      *slog.Logger
}

// NewRentalService creates a new rental service
func NewRentalService(
	rentalRepo domain.RentalRepository,
	cache ListingCache,
	cacheTTL time.Duration,
	maxRadiusKm float64,
	logger *slog.Logger,
) *RentalService {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRadiusKm <= 0 {
		maxRadiusKm = 50
	}

	return &RentalService{
		rentalRepo:  rentalRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		maxRadiusKm: maxRadiusKm,
		logger:      logger,
	}
}

// CreateRentalInput carries the listing fields for creation
type CreateRentalInput struct {
	Title        string
	Description  string
	Mode         string
	Price        *float64
	NightlyPrice *float64
	Town         string
	Latitude     *float64
	Longitude    *float64
	Images       []string
}

func (in *CreateRentalInput) validate() error {
	if in.Title == "" {
		return errors.New("title is required")
	}
	switch in.Mode {
	case domain.ModeRental:
		if in.Price == nil || *in.Price <= 0 {
			return errors.New("a positive monthly price is required for rental mode")
		}
	case domain.ModeLodging:
		if in.NightlyPrice == nil || *in.NightlyPrice <= 0 {
			return errors.New("a positive nightly price is required for lodging mode")
		}
	default:
		return errors.New("mode must be rental or lodging")
	}
	return nil
}

// Create adds a listing owned by the actor. Landlord listings start
// unapproved; admin listings are approved immediately.
func (s *RentalService) Create(actor *domain.User, input CreateRentalInput) (*domain.Rental, error) {
	if !actor.CanOwnRentals() {
		return nil, domain.ErrForbidden
	}
	if !actor.Approved {
		return nil, errors.New("account pending approval")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	rental := &domain.Rental{
		OwnerID:      actor.ID,
		Title:        input.Title,
		Description:  input.Description,
		Mode:         input.Mode,
		Price:        input.Price,
		NightlyPrice: input.NightlyPrice,
		Status:       domain.StatusAvailable,
		Approved:     actor.Role == domain.RoleAdmin,
		Town:         input.Town,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		Images:       input.Images,
	}

	if err := s.rentalRepo.Create(rental); err != nil {
		s.logger.Error("failed to create rental", slog.String("error", err.Error()))
		return nil, domain.ErrInternal
	}

	s.invalidateListingCache()
	return rental, nil
}

// Get returns one listing by id
func (s *RentalService) Get(id int64) (*domain.Rental, error) {
	rental, err := s.rentalRepo.GetByID(id)
	if err != nil {
		return nil, repoError(err)
	}
	return rental, nil
}

// List returns listings matching the filter, read through the cache.
func (s *RentalService) List(filter domain.RentalFilter) ([]*domain.Rental, error) {
	key := listingCacheKey(filter)
	if s.cache != nil {
		if cached, err := s.cache.Get(context.Background(), key); err == nil {
			var rentals []*domain.Rental
			if err := json.Unmarshal([]byte(cached), &rentals); err == nil {
				return rentals, nil
			}
		}
	}

	rentals, err := s.rentalRepo.List(filter)
	if err != nil {
		s.logger.Error("failed to list rentals", slog.String("error", err.Error()))
		return nil, domain.ErrInternal
	}

	if s.cache != nil {
		if data, err := json.Marshal(rentals); err == nil {
			if err := s.cache.Set(context.Background(), key, string(data), s.cacheTTL); err != nil {
				s.logger.Warn("listing cache set failed", slog.String("error", err.Error()))
			}
		}
	}
	return rentals, nil
}

// Mine returns the actor's own listings, any approval state
func (s *RentalService) Mine(actor *domain.User) ([]*domain.Rental, error) {
	rentals, err := s.rentalRepo.ListByOwner(actor.ID)
	if err != nil {
		return nil, repoError(err)
	}
	return rentals, nil
}

// Nearby returns approved available listings within radiusKm of the point.
// The radius is clamped to the configured maximum.
func (s *RentalService) Nearby(latitude, longitude, radiusKm float64) ([]*domain.Rental, error) {
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return nil, errors.New("invalid coordinates")
	}
	if radiusKm <= 0 {
		radiusKm = 10
	}
	if radiusKm > s.maxRadiusKm {
		radiusKm = s.maxRadiusKm
	}
	rentals, err := s.rentalRepo.Nearby(latitude, longitude, radiusKm)
	if err != nil {
		return nil, repoError(err)
	}
	return rentals, nil
}

// Update edits a listing. Only the owner or an admin may edit.
func (s *RentalService) Update(actor *domain.User, id int64, update domain.RentalUpdate) (*domain.Rental, error) {
	rental, err := s.rentalRepo.GetByID(id)
	if err != nil {
		return nil, repoError(err)
	}
	if rental.OwnerID != actor.ID && actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	if update.Mode != nil && *update.Mode != domain.ModeRental && *update.Mode != domain.ModeLodging {
		return nil, errors.New("mode must be rental or lodging")
	}

	updated, err := s.rentalRepo.Update(id, update)
	if err != nil {
		return nil, repoError(err)
	}

	s.invalidateListingCache()
	return updated, nil
}

// Delete removes a listing. Only the owner or an admin may delete.
func (s *RentalService) Delete(actor *domain.User, id int64) error {
	rental, err := s.rentalRepo.GetByID(id)
	if err != nil {
		return repoError(err)
	}
	if rental.OwnerID != actor.ID && actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}

	if err := s.rentalRepo.Delete(id); err != nil {
		return repoError(err)
	}

	s.invalidateListingCache()
	return nil
}

// Book marks an available listing as booked
func (s *RentalService) Book(actor *domain.User, id int64) (*domain.Rental, error) {
	rental, err := s.rentalRepo.GetByID(id)
	if err != nil {
		return nil, repoError(err)
	}
	if rental.Status == domain.StatusBooked {
		return nil, errors.New("rental is already booked")
	}

	booked, err := s.rentalRepo.SetStatus(id, domain.StatusBooked)
	if err != nil {
		return nil, repoError(err)
	}

	s.logger.Info("rental booked",
		slog.Int64("rental_id", id),
		slog.Int64("booked_by", actor.ID),
	)

	s.invalidateListingCache()
	return booked, nil
}

// InvalidateCache drops all cached listing queries. Exposed for the admin
// moderation path, which changes listing visibility outside this service.
func (s *RentalService) InvalidateCache() {
	s.invalidateListingCache()
}

func (s *RentalService) invalidateListingCache() {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(context.Background(), listingCachePrefix+"*"); err != nil {
		s.logger.Warn("listing cache invalidation failed", slog.String("error", err.Error()))
	}
}

func listingCacheKey(filter domain.RentalFilter) string {
	raw := fmt.Sprintf("town=%s&mode=%s&status=%s&approved=%t",
		filter.Town, filter.Mode, filter.Status, filter.ApprovedOnly)
	sum := sha256.Sum256([]byte(raw))
	return listingCachePrefix + hex.EncodeToString(sum[:])
}
