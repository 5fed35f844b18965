package domain

import "time"

// Pricing modes for a listing: monthly rental or nightly lodging.
const (
	ModeRental  = "rental"
	ModeLodging = "lodging"
)

// Listing availability.
const (
	StatusAvailable = "available"
	StatusBooked    = "booked"
)

// Rental represents a listing owned by a landlord (or admin)
type Rental struct {
	ID           int64     `json:"id"`
	OwnerID      int64     `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Mode         string    `json:"mode"`
	Price        *float64  `json:"price,omitempty"`         // monthly, mode=rental
	NightlyPrice *float64  `json:"nightly_price,omitempty"` // mode=lodging
	Status       string    `json:"status"`
	Approved     bool      `json:"approved"`
	Town         string    `json:"town"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	Images       []string  `json:"images"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RentalFilter narrows listing queries. Zero values mean "any".
type RentalFilter struct {
	Town         string
	Mode         string
	Status       string
	ApprovedOnly bool
}

// RentalUpdate carries owner-editable listing fields. Nil means unchanged.
type RentalUpdate struct {
	Title        *string
	Description  *string
	Mode         *string
	Price        *float64
	NightlyPrice *float64
	Town         *string
	Latitude     *float64
	Longitude    *float64
	Images       []string
}

// RentalRepository defines data access for rentals
type RentalRepository interface {
	Create(rental *Rental) error
	GetByID(id int64) (*Rental, error)
	List(filter RentalFilter) ([]*Rental, error)
	ListByOwner(ownerID int64) ([]*Rental, error)
	// Nearby returns approved listings within radiusKm of the point,
	// closest first.
	Nearby(latitude, longitude, radiusKm float64) ([]*Rental, error)
	Update(id int64, update RentalUpdate) (*Rental, error)
	SetStatus(id int64, status string) (*Rental, error)
	SetApproved(id int64) (*Rental, error)
	ListPending() ([]*Rental, error)
	Delete(id int64) error
}
