package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"huddle_server/services"
)

// writeJSON sends a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps engine error kinds to HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidProfile):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrDuplicateVote):
		status = http.StatusConflict
	case errors.Is(err, services.ErrNoOpportunity):
		status = http.StatusGone
	case errors.Is(err, services.ErrMatchingUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, services.ErrReshuffleFailed):
		status = http.StatusBadGateway
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	}

	writeJSON(w, status, map[string]interface{}{
		"error": err.Error(),
	})
}
