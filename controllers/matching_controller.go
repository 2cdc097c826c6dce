package controllers

import (
	"encoding/json"
	"net/http"

	"huddle_server/services"
)

// MatchingController handles HTTP requests for group placement
type MatchingController struct {
	Reshuffler *services.ReshuffleService
}

// NewMatchingController creates a new MatchingController instance
func NewMatchingController(reshuffler *services.ReshuffleService) *MatchingController {
	return &MatchingController{Reshuffler: reshuffler}
}

// MatchMe places the caller into a group, leaving any current one first
func (mc *MatchingController) MatchMe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	group, err := mc.Reshuffler.Reshuffle(r.Context(), body.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Matched successfully",
		"group":   group,
	})
}
