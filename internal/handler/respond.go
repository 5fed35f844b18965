package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/yourorg/rentalhub/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeDomainError maps the sentinel errors to their HTTP status. Services
// collapse persistence failures to ErrInternal, so anything else here is a
// validation failure with a caller-safe message.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "not authorized")
	case errors.Is(err, domain.ErrInternal):
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

// writeRepoError is for handlers that call a repository directly: not-found
// maps to 404, anything else is an internal failure.
func writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func pathID(r *http.Request) (int64, error) {
	return parseID(r.PathValue("id"))
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
