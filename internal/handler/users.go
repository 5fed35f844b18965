package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/rentalhub/internal/domain"
	"github.com/yourorg/rentalhub/internal/security/middleware"
)

// UserHandler handles profile endpoints. Profile operations are thin
// pass-throughs, so the handler sits directly on the repository.
type UserHandler struct {
	userRepo domain.UserRepository
	logger   *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userRepo domain.UserRepository, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &UserHandler{
		userRepo: userRepo,
		logger:   logger,
	}
}

// PublicProfile is the profile shape exposed to other users. Email and
// phone stay private.
type PublicProfile struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Town      string    `json:"town"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateMe handles PUT /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	var req struct {
		FullName *string `json:"full_name"`
		Phone    *string `json:"phone"`
		Town     *string `json:"town"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.userRepo.UpdateProfile(user.ID, domain.ProfileUpdate{
		FullName: req.FullName,
		Phone:    req.Phone,
		Town:     req.Town,
	})
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Get handles GET /api/users/{id}, the public profile
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userRepo.GetByID(id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PublicProfile{
		ID:        user.ID,
		FullName:  user.FullName,
		Town:      user.Town,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	})
}

// SetLocation handles POST /api/users/location
func (h *UserHandler) SetLocation(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	var req struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(w, http.StatusBadRequest, "latitude and longitude are required")
		return
	}
	if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
		writeError(w, http.StatusBadRequest, "invalid coordinates")
		return
	}

	if err := h.userRepo.SetLocation(user.ID, *req.Latitude, *req.Longitude); err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
