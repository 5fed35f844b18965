package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/rentalhub/internal/domain"
	"github.com/yourorg/rentalhub/internal/store"
)

// PostgresRentalRepository implements domain.RentalRepository on top of the
// generic accessor, with raw parameterized SQL for the non-equality queries.
type PostgresRentalRepository struct {
	store  *store.Store
	logger *slog.Logger
}

// NewPostgresRentalRepository creates a new rental repository
func NewPostgresRentalRepository(s *store.Store, logger *slog.Logger) *PostgresRentalRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRentalRepository{
		store:  s,
		logger: logger,
	}
}

func rowToRental(r store.Row) *domain.Rental {
	return &domain.Rental{
		ID:           rowInt64(r, "id"),
		OwnerID:      rowInt64(r, "owner_id"),
		Title:        rowString(r, "title"),
		Description:  rowString(r, "description"),
		Mode:         rowString(r, "mode"),
		Price:        rowOptFloat(r, "price"),
		NightlyPrice: rowOptFloat(r, "nightly_price"),
		Status:       rowString(r, "status"),
		Approved:     rowBool(r, "approved"),
		Town:         rowString(r, "town"),
		Latitude:     rowOptFloat(r, "latitude"),
		Longitude:    rowOptFloat(r, "longitude"),
		Images:       rowStringSlice(r, "images"),
		CreatedAt:    rowTime(r, "created_at"),
		UpdatedAt:    rowTime(r, "updated_at"),
	}
}

func imagesJSON(images []string) string {
	if images == nil {
		images = []string{}
	}
	data, _ := json.Marshal(images)
	return string(data)
}

// Create inserts the rental and fills in the generated fields
func (r *PostgresRentalRepository) Create(rental *domain.Rental) error {
	data := store.Row{
		"owner_id":    rental.OwnerID,
		"title":       rental.Title,
		"description": rental.Description,
		"mode":        rental.Mode,
		"status":      rental.Status,
		"approved":    rental.Approved,
		"town":        rental.Town,
		"images":      imagesJSON(rental.Images),
	}
	if rental.Price != nil {
		data["price"] = *rental.Price
	}
	if rental.NightlyPrice != nil {
		data["nightly_price"] = *rental.NightlyPrice
	}
	if rental.Latitude != nil {
		data["latitude"] = *rental.Latitude
	}
	if rental.Longitude != nil {
		data["longitude"] = *rental.Longitude
	}

	row, err := r.store.Insert(context.Background(), "rentals", data)
	if err != nil {
		r.logger.Error("failed to create rental",
			slog.Int64("owner_id", rental.OwnerID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create rental: %w", err)
	}

	*rental = *rowToRental(row)
	return nil
}

// GetByID retrieves a rental by ID
func (r *PostgresRentalRepository) GetByID(id int64) (*domain.Rental, error) {
	row, err := r.store.FindOne(context.Background(), "rentals", store.Row{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get rental: %w", err)
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}
	return rowToRental(row), nil
}

// List returns rentals matching the equality filter
func (r *PostgresRentalRepository) List(filter domain.RentalFilter) ([]*domain.Rental, error) {
	conditions := store.Row{}
	if filter.Town != "" {
		conditions["town"] = filter.Town
	}
	if filter.Mode != "" {
		conditions["mode"] = filter.Mode
	}
	if filter.Status != "" {
		conditions["status"] = filter.Status
	}
	if filter.ApprovedOnly {
		conditions["approved"] = true
	}

	rows, err := r.store.FindBy(context.Background(), "rentals", conditions)
	if err != nil {
		r.logger.Error("failed to list rentals", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list rentals: %w", err)
	}
	return rowsToRentals(rows), nil
}

// ListByOwner returns all listings owned by the user, any approval state
func (r *PostgresRentalRepository) ListByOwner(ownerID int64) ([]*domain.Rental, error) {
	rows, err := r.store.FindBy(context.Background(), "rentals", store.Row{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list rentals by owner: %w", err)
	}
	return rowsToRentals(rows), nil
}

// Nearby returns approved available listings within radiusKm, closest first.
// Haversine over the stored coordinates; listings without coordinates are
// excluded.
func (r *PostgresRentalRepository) Nearby(latitude, longitude, radiusKm float64) ([]*domain.Rental, error) {
	rows, err := r.store.Query(context.Background(), `
		SELECT * FROM (
			SELECT *,
				6371 * acos(
					least(1.0,
						cos(radians($1)) * cos(radians(latitude)) *
						cos(radians(longitude) - radians($2)) +
						sin(radians($1)) * sin(radians(latitude))
					)
				) AS distance_km
			FROM rentals
			WHERE approved = true AND status = 'available'
				AND latitude IS NOT NULL AND longitude IS NOT NULL
		) candidates
		WHERE distance_km <= $3
		ORDER BY distance_km ASC`,
		latitude, longitude, radiusKm,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby rentals: %w", err)
	}
	return rowsToRentals(rows), nil
}

// Update applies the provided listing fields
func (r *PostgresRentalRepository) Update(id int64, update domain.RentalUpdate) (*domain.Rental, error) {
	data := store.Row{}
	if update.Title != nil {
		data["title"] = *update.Title
	}
	if update.Description != nil {
		data["description"] = *update.Description
	}
	if update.Mode != nil {
		data["mode"] = *update.Mode
	}
	if update.Price != nil {
		data["price"] = *update.Price
	}
	if update.NightlyPrice != nil {
		data["nightly_price"] = *update.NightlyPrice
	}
	if update.Town != nil {
		data["town"] = *update.Town
	}
	if update.Latitude != nil {
		data["latitude"] = *update.Latitude
	}
	if update.Longitude != nil {
		data["longitude"] = *update.Longitude
	}
	if update.Images != nil {
		data["images"] = imagesJSON(update.Images)
	}
	if len(data) == 0 {
		return r.GetByID(id)
	}
	data["updated_at"] = time.Now()

	rows, err := r.store.Update(context.Background(), "rentals", store.Row{"id": id}, data)
	if err != nil {
		return nil, fmt.Errorf("failed to update rental: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rowToRental(rows[0]), nil
}

// SetStatus marks the listing available or booked
func (r *PostgresRentalRepository) SetStatus(id int64, status string) (*domain.Rental, error) {
	rows, err := r.store.Update(context.Background(), "rentals",
		store.Row{"id": id},
		store.Row{"status": status, "updated_at": time.Now()},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set rental status: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rowToRental(rows[0]), nil
}

// SetApproved marks the listing as moderated
func (r *PostgresRentalRepository) SetApproved(id int64) (*domain.Rental, error) {
	rows, err := r.store.Update(context.Background(), "rentals",
		store.Row{"id": id},
		store.Row{"approved": true, "updated_at": time.Now()},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to approve rental: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rowToRental(rows[0]), nil
}

// ListPending returns listings awaiting moderation, newest first
func (r *PostgresRentalRepository) ListPending() ([]*domain.Rental, error) {
	rows, err := r.store.Query(context.Background(),
		`SELECT * FROM rentals WHERE approved = false ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending rentals: %w", err)
	}
	return rowsToRentals(rows), nil
}

// Delete removes the rental row
func (r *PostgresRentalRepository) Delete(id int64) error {
	rows, err := r.store.Delete(context.Background(), "rentals", store.Row{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete rental: %w", err)
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func rowsToRentals(rows []store.Row) []*domain.Rental {
	rentals := make([]*domain.Rental, 0, len(rows))
	for _, row := range rows {
		rentals = append(rentals, rowToRental(row))
	}
	return rentals
}
