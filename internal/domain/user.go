package domain

import "time"

// Roles a user can hold. Admins are created out of band via the CLI.
const (
	RoleClient   = "client"
	RoleLandlord = "landlord"
	RoleAdmin    = "admin"
)

// User represents a registered account
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // bcrypt hash, never serialized
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	Town         string    `json:"town"`
	Role         string    `json:"role"`
	Approved     bool      `json:"approved"`
	Suspended    bool      `json:"suspended"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanOwnRentals reports whether the user may hold listings.
func (u *User) CanOwnRentals() bool {
	return u.Role == RoleLandlord || u.Role == RoleAdmin
}

// ProfileUpdate carries the user-editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	FullName *string
	Phone    *string
	Town     *string
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(user *User) error
	GetByID(id int64) (*User, error)
	GetByEmail(email string) (*User, error)
	UpdateProfile(id int64, update ProfileUpdate) (*User, error)
	SetLocation(id int64, latitude, longitude float64) error
	// SetModeration flips both moderation flags in a single statement.
	SetModeration(id int64, approved, suspended bool) (*User, error)
	Delete(id int64) error
	List() ([]*User, error)
	ListPending() ([]*User, error)
}
