package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yourorg/rentalhub/internal/domain"
	"github.com/yourorg/rentalhub/internal/security/middleware"
	"github.com/yourorg/rentalhub/internal/service"
)

// RentalHandler handles the listing endpoints
type RentalHandler struct {
	rentalService *service.RentalService
	logger        *slog.Logger
}

// NewRentalHandler creates a new rental handler
func NewRentalHandler(rentalService *service.RentalService, logger *slog.Logger) *RentalHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &RentalHandler{
		rentalService: rentalService,
		logger:        logger,
	}
}

// RentalRequest represents a create or update request body
type RentalRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Mode         string   `json:"mode"`
	Price        *float64 `json:"price"`
	NightlyPrice *float64 `json:"nightly_price"`
	Town         string   `json:"town"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Images       []string `json:"images"`
}

// List handles GET /api/rentals. The public surface only exposes approved
// listings; town, mode and status narrow the result.
func (h *RentalHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.RentalFilter{
		Town:         r.URL.Query().Get("town"),
		Mode:         r.URL.Query().Get("mode"),
		Status:       r.URL.Query().Get("status"),
		ApprovedOnly: true,
	}

	rentals, err := h.rentalService.List(filter)
	if err != nil {
		h.logger.Error("failed to list rentals", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list rentals")
		return
	}

	writeJSON(w, http.StatusOK, rentals)
}

// ListByTown handles GET /api/rentals/town/{town}
func (h *RentalHandler) ListByTown(w http.ResponseWriter, r *http.Request) {
	town := r.PathValue("town")
	if town == "" {
		writeError(w, http.StatusBadRequest, "town is required")
		return
	}

	rentals, err := h.rentalService.List(domain.RentalFilter{Town: town, ApprovedOnly: true})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rentals")
		return
	}

	writeJSON(w, http.StatusOK, rentals)
}

// Nearby handles GET /api/rentals/nearby?lat=&lng=&radius_km=
func (h *RentalHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lat is required")
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lng is required")
		return
	}
	radiusKm, _ := strconv.ParseFloat(r.URL.Query().Get("radius_km"), 64)

	rentals, err := h.rentalService.Nearby(lat, lng, radiusKm)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rentals)
}

// Mine handles GET /api/rentals/mine, the owner's listings in every state
func (h *RentalHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	rentals, err := h.rentalService.Mine(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rentals")
		return
	}

	writeJSON(w, http.StatusOK, rentals)
}

// Get handles GET /api/rentals/{id}
func (h *RentalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rental, err := h.rentalService.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rental)
}

// Create handles POST /api/rentals
func (h *RentalHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	var req RentalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	rental, err := h.rentalService.Create(user, service.CreateRentalInput{
		Title:        req.Title,
		Description:  req.Description,
		Mode:         req.Mode,
		Price:        req.Price,
		NightlyPrice: req.NightlyPrice,
		Town:         req.Town,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Images:       req.Images,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.logger.Info("rental created",
		slog.Int64("rental_id", rental.ID),
		slog.Int64("owner_id", user.ID),
	)
	writeJSON(w, http.StatusCreated, rental)
}

// Update handles PUT /api/rentals/{id}
func (h *RentalHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Title        *string  `json:"title"`
		Description  *string  `json:"description"`
		Mode         *string  `json:"mode"`
		Price        *float64 `json:"price"`
		NightlyPrice *float64 `json:"nightly_price"`
		Town         *string  `json:"town"`
		Images       []string `json:"images"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	rental, err := h.rentalService.Update(user, id, domain.RentalUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Mode:         req.Mode,
		Price:        req.Price,
		NightlyPrice: req.NightlyPrice,
		Town:         req.Town,
		Images:       req.Images,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rental)
}

// Delete handles DELETE /api/rentals/{id}
func (h *RentalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.rentalService.Delete(user, id); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Book handles PUT /api/rentals/{id}/book
func (h *RentalHandler) Book(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rental, err := h.rentalService.Book(user, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rental)
}
