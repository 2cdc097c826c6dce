package controllers

import (
	"encoding/json"
	"net/http"

	"huddle_server/services"
)

// ExitController handles HTTP requests for exit windows
type ExitController struct {
	ExitService *services.ExitService
	Reshuffler  *services.ReshuffleService
}

// NewExitController creates a new ExitController instance
func NewExitController(exitService *services.ExitService, reshuffler *services.ReshuffleService) *ExitController {
	return &ExitController{ExitService: exitService, Reshuffler: reshuffler}
}

// GetOpportunity reports whether the caller holds an open exit window
func (ec *ExitController) GetOpportunity(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	groupID := r.URL.Query().Get("groupId")
	if userID == "" || groupID == "" {
		http.Error(w, "userId and groupId are required", http.StatusBadRequest)
		return
	}

	open, err := ec.ExitService.HasOpportunity(r.Context(), userID, groupID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"hasOpportunity": open,
	})
}

// RequestExit consumes the caller's exit window and reshuffles them into a
// new group. A lapsed or missing window fails with 410 and the client falls
// back to the regular switch-allowance flow.
func (ec *ExitController) RequestExit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID  string `json:"userId"`
		GroupID string `json:"groupId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.UserID == "" || body.GroupID == "" {
		http.Error(w, "userId and groupId are required", http.StatusBadRequest)
		return
	}

	if err := ec.ExitService.Consume(r.Context(), body.UserID, body.GroupID); err != nil {
		writeError(w, err)
		return
	}

	group, err := ec.Reshuffler.Reshuffle(r.Context(), body.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Exit processed",
		"group":   group,
	})
}
