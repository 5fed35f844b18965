package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/rentalhub/internal/security/middleware"
	"github.com/yourorg/rentalhub/internal/service"
)

// AdminHandler handles the moderation endpoints. Every route behind it is
// wrapped in RequireRole(admin), so handlers only deal with the work itself.
type AdminHandler struct {
	adminService *service.AdminService
	logger       *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *service.AdminService, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AdminHandler{
		adminService: adminService,
		logger:       logger,
	}
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// PendingUsers handles GET /api/admin/pending-users
func (h *AdminHandler) PendingUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.PendingUsers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// ApproveUser handles POST /api/admin/users/{id}/approve
func (h *AdminHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUserFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.adminService.ApproveUser(admin.ID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// SuspendUser handles POST /api/admin/users/{id}/suspend
func (h *AdminHandler) SuspendUser(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUserFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if id == admin.ID {
		writeError(w, http.StatusBadRequest, "cannot suspend your own account")
		return
	}

	user, err := h.adminService.SuspendUser(admin.ID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUserFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if id == admin.ID {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := h.adminService.DeleteUser(admin.ID, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListRentals handles GET /api/admin/rentals, every listing in every state
func (h *AdminHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
	rentals, err := h.adminService.ListRentals()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rentals")
		return
	}
	writeJSON(w, http.StatusOK, rentals)
}

// PendingRentals handles GET /api/admin/pending-rentals
func (h *AdminHandler) PendingRentals(w http.ResponseWriter, r *http.Request) {
	rentals, err := h.adminService.PendingRentals()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rentals")
		return
	}
	writeJSON(w, http.StatusOK, rentals)
}

// ApproveRental handles POST /api/admin/rentals/{id}/approve
func (h *AdminHandler) ApproveRental(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUserFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rental, err := h.adminService.ApproveRental(admin.ID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.adminService.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
