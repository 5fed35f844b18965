package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/yourorg/rentalhub/internal/domain"
	"github.com/yourorg/rentalhub/internal/handler"
	"github.com/yourorg/rentalhub/internal/infrastructure/logger"
	"github.com/yourorg/rentalhub/internal/observability/metrics"
	"github.com/yourorg/rentalhub/internal/relay"
	"github.com/yourorg/rentalhub/internal/security/audit"
	"github.com/yourorg/rentalhub/internal/security/auth"
	"github.com/yourorg/rentalhub/internal/security/middleware"
	"github.com/yourorg/rentalhub/internal/security/ratelimit"
	"github.com/yourorg/rentalhub/internal/service"
)

// In-memory repositories backing the test server. Everything runs behind
// one mutex; the tests do not need per-table locking.

type memStore struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*domain.User
	rentals  map[int64]*domain.Rental
	messages []*domain.Message
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[int64]*domain.User{},
		rentals: map[int64]*domain.Rental{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

type memUsers struct{ s *memStore }

func (m memUsers) Create(u *domain.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u.ID = m.s.id()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.s.users[u.ID] = u
	return nil
}

func (m memUsers) GetByID(id int64) (*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if u, ok := m.s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m memUsers) GetByEmail(email string) (*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m memUsers) UpdateProfile(id int64, update domain.ProfileUpdate) (*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
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
	return u, nil
}

func (m memUsers) SetLocation(id int64, latitude, longitude float64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Latitude = &latitude
	u.Longitude = &longitude
	return nil
}

func (m memUsers) SetModeration(id int64, approved, suspended bool) (*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.Approved = approved
	u.Suspended = suspended
	return u, nil
}

func (m memUsers) Delete(id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.s.users, id)
	return nil
}

func (m memUsers) List() ([]*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []*domain.User{}
	for _, u := range m.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m memUsers) ListPending() ([]*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []*domain.User{}
	for _, u := range m.s.users {
		if !u.Approved && !u.Suspended {
			out = append(out, u)
		}
	}
	return out, nil
}

type memRentals struct{ s *memStore }

func (m memRentals) Create(r *domain.Rental) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r.ID = m.s.id()
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	if r.Images == nil {
		r.Images = []string{}
	}
	m.s.rentals[r.ID] = r
	return nil
}

func (m memRentals) GetByID(id int64) (*domain.Rental, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if r, ok := m.s.rentals[id]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (m memRentals) List(filter domain.RentalFilter) ([]*domain.Rental, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []*domain.Rental{}
	for _, r := range m.s.rentals {
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

func (m memRentals) ListByOwner(ownerID int64) ([]*domain.Rental, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []*domain.Rental{}
	for _, r := range m.s.rentals {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memRentals) Nearby(latitude, longitude, radiusKm float64) ([]*domain.Rental, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []*domain.Rental{}
	for _, r := range m.s.rentals {
		if r.Approved && r.Status == domain.StatusAvailable && r.Latitude != nil && r.Longitude != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m memRentals) Update(id int64, update domain.RentalUpdate) (*domain.Rental, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.rentals[id]
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
	return r, nil
}

func (m memRentals) SetStatus(id int64, status string) (*domain.Rental, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.rentals[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r.Status = status
	return r, nil
}

func (m memRentals) SetApproved(id int64) (*domain.Rental, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.rentals[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r.Approved = true
	return r, nil
}

func (m memRentals) ListPending() ([]*domain.Rental, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []*domain.Rental{}
	for _, r := range m.s.rentals {
		if !r.Approved {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m memRentals) Delete(id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.rentals[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.s.rentals, id)
	return nil
}

type memMessages struct{ s *memStore }

func (m memMessages) Create(msg *domain.Message) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	msg.ID = m.s.id()
	msg.CreatedAt = time.Now()
	m.s.messages = append(m.s.messages, msg)
	return nil
}

func (m memMessages) ListByRental(rentalID int64) ([]*domain.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []*domain.Message{}
	for _, msg := range m.s.messages {
		if msg.RentalID != nil && *msg.RentalID == rentalID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m memMessages) RecentForUser(userID int64, limit int) ([]*domain.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []*domain.Message{}
	for i := len(m.s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		msg := m.s.messages[i]
		if msg.SenderID == userID || msg.ReceiverID == userID {
			out = append(out, msg)
		}
	}
	return out, nil
}

type memStats struct{ s *memStore }

func (m memStats) Counts() (*domain.Counts, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	active := int64(0)
	for _, r := range m.s.rentals {
		if r.Approved && r.Status == domain.StatusAvailable {
			active++
		}
	}
	return &domain.Counts{
		Users:         int64(len(m.s.users)),
		Rentals:       int64(len(m.s.rentals)),
		ActiveRentals: active,
		Messages:      int64(len(m.s.messages)),
	}, nil
}

// TestServer is a fully wired API over in-memory repositories
type TestServer struct {
	Server *httptest.Server
	Hub    *relay.Hub
	Users  domain.UserRepository

	limiter *ratelimit.Limiter
}

// NewTestServer wires the whole request path: routes, auth middleware, rate
// limiting and the websocket relay, everything except Postgres and Redis.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	log := logger.NewLogger("error")
	ms := newMemStore()
	users := memUsers{ms}
	rentals := memRentals{ms}
	messages := memMessages{ms}
	stats := memStats{ms}

	tokenManager := auth.NewTokenManager("integration-secret", "rentalhub")
	limiter := ratelimit.NewLimiter(1000, time.Minute)
	auditLogger := audit.NewLogger(log)

	authService := service.NewAuthService(users, tokenManager, time.Hour, log)
	rentalService := service.NewRentalService(rentals, nil, time.Minute, 50, log)
	chatService := service.NewChatService(messages, users, rentals, log)
	statsService := service.NewStatsService(stats, nil, time.Second, log)
	adminService := service.NewAdminService(users, rentals, stats, rentalService, auditLogger, log)

	authHandler := handler.NewAuthHandler(authService, log)
	rentalHandler := handler.NewRentalHandler(rentalService, log)
	chatHandler := handler.NewChatHandler(chatService, log)
	userHandler := handler.NewUserHandler(users, log)
	adminHandler := handler.NewAdminHandler(adminService, log)
	statsHandler := handler.NewStatsHandler(statsService, log)

	hub := relay.NewHub(log)
	go hub.Run()
	wsHandler := relay.NewHandler(hub, chatService, tokenManager, users, []string{"*"}, log)

	authed := middleware.RequireAuth(tokenManager, users, log)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	landlordOrAdmin := middleware.RequireRole(domain.RoleLandlord, domain.RoleAdmin)
	limited := middleware.RateLimitMiddleware(limiter, log)

	public := func(h http.HandlerFunc) http.Handler { return limited(h) }
	protected := func(h http.HandlerFunc) http.Handler { return authed(limited(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return authed(adminOnly(limited(h))) }

	mux := http.NewServeMux()
	mux.Handle("POST /api/auth/register", public(authHandler.Register))
	mux.Handle("POST /api/auth/login", public(authHandler.Login))
	mux.Handle("GET /api/rentals", public(rentalHandler.List))
	mux.Handle("GET /api/rentals/nearby", public(rentalHandler.Nearby))
	mux.Handle("GET /api/rentals/town/{town}", public(rentalHandler.ListByTown))
	mux.Handle("GET /api/rentals/mine", protected(rentalHandler.Mine))
	mux.Handle("GET /api/rentals/{id}", public(rentalHandler.Get))
	mux.Handle("POST /api/rentals", authed(landlordOrAdmin(limited(http.HandlerFunc(rentalHandler.Create)))))
	mux.Handle("PUT /api/rentals/{id}", protected(rentalHandler.Update))
	mux.Handle("DELETE /api/rentals/{id}", protected(rentalHandler.Delete))
	mux.Handle("PUT /api/rentals/{id}/book", protected(rentalHandler.Book))
	mux.Handle("POST /api/chat/send", protected(chatHandler.Send))
	mux.Handle("GET /api/chat/messages/recent/{id}", protected(chatHandler.Recent))
	mux.Handle("GET /api/chat/messages/{id}", protected(chatHandler.History))
	mux.Handle("GET /api/users/me", protected(userHandler.Me))
	mux.Handle("PUT /api/users/me", protected(userHandler.UpdateMe))
	mux.Handle("POST /api/users/location", protected(userHandler.SetLocation))
	mux.Handle("GET /api/users/{id}", public(userHandler.Get))
	mux.Handle("GET /api/admin/users", admin(adminHandler.ListUsers))
	mux.Handle("GET /api/admin/pending-users", admin(adminHandler.PendingUsers))
	mux.Handle("POST /api/admin/users/{id}/approve", admin(adminHandler.ApproveUser))
	mux.Handle("POST /api/admin/users/{id}/suspend", admin(adminHandler.SuspendUser))
	mux.Handle("DELETE /api/admin/users/{id}", admin(adminHandler.DeleteUser))
	mux.Handle("GET /api/admin/rentals", admin(adminHandler.ListRentals))
	mux.Handle("GET /api/admin/pending-rentals", admin(adminHandler.PendingRentals))
	mux.Handle("POST /api/admin/rentals/{id}/approve", admin(adminHandler.ApproveRental))
	mux.Handle("GET /api/admin/stats", admin(adminHandler.Stats))
	mux.Handle("GET /api/stats/counts", public(statsHandler.Counts))
	mux.HandleFunc("GET /ws", wsHandler.ServeWS)

	// Same instrumentation wrapper the real server uses, so the websocket
	// upgrade path is exercised through it.
	server := httptest.NewServer(metrics.HTTPMetricsMiddleware(mux))

	ts := &TestServer{
		Server:  server,
		Hub:     hub,
		Users:   users,
		limiter: limiter,
	}
	t.Cleanup(ts.Close)
	return ts
}

func (ts *TestServer) Close() {
	ts.Server.Close()
	ts.Hub.Stop()
	ts.limiter.Stop()
}

func (ts *TestServer) URL() string {
	return ts.Server.URL
}

// DoJSON issues a request with an optional bearer token and JSON body, and
// decodes the response into out when out is non-nil.
func (ts *TestServer) DoJSON(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL()+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

// Register creates an account through the API and returns its token
func (ts *TestServer) Register(t *testing.T, email, role string) (token string, userID int64) {
	t.Helper()

	var result struct {
		User  *domain.User `json:"user"`
		Token string       `json:"token"`
	}
	status := ts.DoJSON(t, "POST", "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "password123",
		"role":     role,
	}, &result)
	if status != http.StatusCreated {
		t.Fatalf("register %s: status %d", email, status)
	}
	return result.Token, result.User.ID
}

// BootstrapAdmin seeds an approved admin directly and logs it in
func (ts *TestServer) BootstrapAdmin(t *testing.T) string {
	t.Helper()

	// same hash the API produces for "password123"
	token, id := ts.Register(t, fmt.Sprintf("admin-%d@example.com", time.Now().UnixNano()), "client")
	_ = token

	u, err := ts.Users.GetByID(id)
	if err != nil {
		t.Fatalf("admin lookup: %v", err)
	}
	u.Role = domain.RoleAdmin

	var result struct {
		Token string `json:"token"`
	}
	status := ts.DoJSON(t, "POST", "/api/auth/login", "", map[string]string{
		"email":    u.Email,
		"password": "password123",
	}, &result)
	if status != http.StatusOK {
		t.Fatalf("admin login: status %d", status)
	}
	return result.Token
}
