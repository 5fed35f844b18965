package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/rentalhub/internal/domain"
	"github.com/yourorg/rentalhub/internal/store"
)

// PostgresUserRepository implements domain.UserRepository on top of the
// generic accessor.
type PostgresUserRepository struct {
	store  *store.Store
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(s *store.Store, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserRepository{
		store:  s,
		logger: logger,
	}
}

func rowToUser(r store.Row) *domain.User {
	return &domain.User{
		ID:           rowInt64(r, "id"),
		Email:        rowString(r, "email"),
		PasswordHash: rowString(r, "password_hash"),
		FullName:     rowString(r, "full_name"),
		Phone:        rowString(r, "phone"),
		Town:         rowString(r, "town"),
		Role:         rowString(r, "role"),
		Approved:     rowBool(r, "approved"),
		Suspended:    rowBool(r, "suspended"),
		Latitude:     rowOptFloat(r, "latitude"),
		Longitude:    rowOptFloat(r, "longitude"),
		CreatedAt:    rowTime(r, "created_at"),
		UpdatedAt:    rowTime(r, "updated_at"),
	}
}

// Create inserts the user and fills in the generated fields
func (r *PostgresUserRepository) Create(user *domain.User) error {
	row, err := r.store.Insert(context.Background(), "users", store.Row{
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"full_name":     user.FullName,
		"phone":         user.Phone,
		"town":          user.Town,
		"role":          user.Role,
		"approved":      user.Approved,
		"suspended":     user.Suspended,
	})
	if err != nil {
		r.logger.Error("failed to create user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}

	*user = *rowToUser(row)
	return nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(id int64) (*domain.User, error) {
	row, err := r.store.FindOne(context.Background(), "users", store.Row{"id": id})
	if err != nil {
		r.logger.Error("failed to get user by id",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}
	return rowToUser(row), nil
}

// GetByEmail retrieves a user by email
func (r *PostgresUserRepository) GetByEmail(email string) (*domain.User, error) {
	row, err := r.store.FindOne(context.Background(), "users", store.Row{"email": email})
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}
	return rowToUser(row), nil
}

// UpdateProfile applies the provided profile fields
func (r *PostgresUserRepository) UpdateProfile(id int64, update domain.ProfileUpdate) (*domain.User, error) {
	data := store.Row{}
	if update.FullName != nil {
		data["full_name"] = *update.FullName
	}
	if update.Phone != nil {
		data["phone"] = *update.Phone
	}
	if update.Town != nil {
		data["town"] = *update.Town
	}
	if len(data) == 0 {
		return r.GetByID(id)
	}
	data["updated_at"] = time.Now()

	rows, err := r.store.Update(context.Background(), "users", store.Row{"id": id}, data)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rowToUser(rows[0]), nil
}

// SetLocation stores the user's last known coordinates
func (r *PostgresUserRepository) SetLocation(id int64, latitude, longitude float64) error {
	rows, err := r.store.Update(context.Background(), "users",
		store.Row{"id": id},
		store.Row{"latitude": latitude, "longitude": longitude, "updated_at": time.Now()},
	)
	if err != nil {
		return fmt.Errorf("failed to set location: %w", err)
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetModeration flips approved and suspended together in one statement, so a
// suspend can never leave the pair half applied.
func (r *PostgresUserRepository) SetModeration(id int64, approved, suspended bool) (*domain.User, error) {
	rows, err := r.store.Update(context.Background(), "users",
		store.Row{"id": id},
		store.Row{"approved": approved, "suspended": suspended, "updated_at": time.Now()},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update moderation flags: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rowToUser(rows[0]), nil
}

// Delete removes the user row
func (r *PostgresUserRepository) Delete(id int64) error {
	rows, err := r.store.Delete(context.Background(), "users", store.Row{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns all users, newest first
func (r *PostgresUserRepository) List() ([]*domain.User, error) {
	rows, err := r.store.Query(context.Background(),
		`SELECT * FROM users ORDER BY created_at DESC`)
	if err != nil {
		r.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return rowsToUsers(rows), nil
}

// ListPending returns users awaiting approval, newest first
func (r *PostgresUserRepository) ListPending() ([]*domain.User, error) {
	rows, err := r.store.Query(context.Background(),
		`SELECT * FROM users WHERE approved = false AND suspended = false ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending users: %w", err)
	}
	return rowsToUsers(rows), nil
}

func rowsToUsers(rows []store.Row) []*domain.User {
	users := make([]*domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, rowToUser(row))
	}
	return users
}
