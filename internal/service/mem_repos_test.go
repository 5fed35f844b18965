package service

import (
	"sort"
	"time"

	"github.com/yourorg/rentalhub/internal/domain"
)

// In-memory repositories used across the service tests.

type memUserRepo struct {
	nextID int64
	byID   map[int64]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[int64]*domain.User{}}
}

func (m *memUserRepo) Create(u *domain.User) error {
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = u
	return nil
}

func (m *memUserRepo) GetByID(id int64) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) GetByEmail(email string) (*domain.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) UpdateProfile(id int64, update domain.ProfileUpdate) (*domain.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if update.FullName != nil {
		u.FullName = *update.FullName
	}
	if update.Phone != nil {
		u.Phone = *update.Phone
	}
	if update.Town != nil {
		u.Town = *update.Town
	}
	u.UpdatedAt = time.Now()
	return u, nil
}

func (m *memUserRepo) SetLocation(id int64, latitude, longitude float64) error {
	u, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Latitude = &latitude
	u.Longitude = &longitude
	return nil
}

func (m *memUserRepo) SetModeration(id int64, approved, suspended bool) (*domain.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.Approved = approved
	u.Suspended = suspended
	return u, nil
}

func (m *memUserRepo) Delete(id int64) error {
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUserRepo) List() ([]*domain.User, error) {
	out := []*domain.User{}
	for _, u := range m.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memUserRepo) ListPending() ([]*domain.User, error) {
	out := []*domain.User{}
	for _, u := range m.byID {
		if !u.Approved && !u.Suspended {
			out = append(out, u)
		}
	}
	return out, nil
}

type memRentalRepo struct {
	nextID int64
	byID   map[int64]*domain.Rental
}

func newMemRentalRepo() *memRentalRepo {
	return &memRentalRepo{byID: map[int64]*domain.Rental{}}
}

func (m *memRentalRepo) Create(r *domain.Rental) error {
	m.nextID++
	r.ID = m.nextID
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	if r.Images == nil {
		r.Images = []string{}
	}
	m.byID[r.ID] = r
	return nil
}

func (m *memRentalRepo) GetByID(id int64) (*domain.Rental, error) {
	if r, ok := m.byID[id]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memRentalRepo) List(filter domain.RentalFilter) ([]*domain.Rental, error) {
	out := []*domain.Rental{}
	for _, r := range m.byID {
		if filter.Town != "" && r.Town != filter.Town {
			continue
		}
		if filter.Mode != "" && r.Mode != filter.Mode {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.ApprovedOnly && !r.Approved {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRentalRepo) ListByOwner(ownerID int64) ([]*domain.Rental, error) {
	out := []*domain.Rental{}
	for _, r := range m.byID {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRentalRepo) Nearby(latitude, longitude, radiusKm float64) ([]*domain.Rental, error) {
	out := []*domain.Rental{}
	for _, r := range m.byID {
		if r.Approved && r.Status == domain.StatusAvailable && r.Latitude != nil && r.Longitude != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRentalRepo) Update(id int64, update domain.RentalUpdate) (*domain.Rental, error) {
	r, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if update.Title != nil {
		r.Title = *update.Title
	}
	if update.Description != nil {
		r.Description = *update.Description
	}
	if update.Mode != nil {
		r.Mode = *update.Mode
	}
	if update.Price != nil {
		r.Price = update.Price
	}
	if update.NightlyPrice != nil {
		r.NightlyPrice = update.NightlyPrice
	}
	if update.Town != nil {
		r.Town = *update.Town
	}
	if update.Images != nil {
		r.Images = update.Images
	}
	r.UpdatedAt = time.Now()
	return r, nil
}

func (m *memRentalRepo) SetStatus(id int64, status string) (*domain.Rental, error) {
	r, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r.Status = status
	return r, nil
}

func (m *memRentalRepo) SetApproved(id int64) (*domain.Rental, error) {
	r, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r.Approved = true
	return r, nil
}

func (m *memRentalRepo) ListPending() ([]*domain.Rental, error) {
	out := []*domain.Rental{}
	for _, r := range m.byID {
		if !r.Approved {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRentalRepo) Delete(id int64) error {
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memMessageRepo struct {
	nextID   int64
	messages []*domain.Message
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{}
}

func (m *memMessageRepo) Create(msg *domain.Message) error {
	m.nextID++
	msg.ID = m.nextID
	msg.CreatedAt = time.Now()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *memMessageRepo) ListByRental(rentalID int64) ([]*domain.Message, error) {
	out := []*domain.Message{}
	for _, msg := range m.messages {
		if msg.RentalID != nil && *msg.RentalID == rentalID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memMessageRepo) RecentForUser(userID int64, limit int) ([]*domain.Message, error) {
	out := []*domain.Message{}
	for i := len(m.messages) - 1; i >= 0 && len(out) < limit; i-- {
		msg := m.messages[i]
		if msg.SenderID == userID || msg.ReceiverID == userID {
			out = append(out, msg)
		}
	}
	return out, nil
}

type memStatsRepo struct {
	users   *memUserRepo
	rentals *memRentalRepo
	msgs    *memMessageRepo
}

func (m *memStatsRepo) Counts() (*domain.Counts, error) {
	active := int64(0)
	for _, r := range m.rentals.byID {
		if r.Approved && r.Status == domain.StatusAvailable {
			active++
		}
	}
	return &domain.Counts{
		Users:         int64(len(m.users.byID)),
		Rentals:       int64(len(m.rentals.byID)),
		ActiveRentals: active,
		Messages:      int64(len(m.msgs.messages)),
	}, nil
}
