package controllers

import (
	"encoding/json"
	"net/http"

	"huddle_server/services"

	"github.com/gorilla/mux"
)

// VotingController handles HTTP requests for continuation votes and
// lifecycle reads
type VotingController struct {
	VotingService *services.VotingService
}

// NewVotingController creates a new VotingController instance
func NewVotingController(votingService *services.VotingService) *VotingController {
	return &VotingController{VotingService: votingService}
}

// CastVote records a member's ballot for their group's current cycle
func (vc *VotingController) CastVote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID  string `json:"userId"`
		GroupID string `json:"groupId"`
		Choice  string `json:"choice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.UserID == "" || body.GroupID == "" || body.Choice == "" {
		http.Error(w, "userId, groupId and choice are required", http.StatusBadRequest)
		return
	}

	group, err := vc.VotingService.CastVote(r.Context(), body.UserID, body.GroupID, body.Choice)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Vote recorded",
		"stage":   group.Stage,
	})
}

// GetLifecycle returns the lifecycle snapshot of a group for a caller
func (vc *VotingController) GetLifecycle(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]
	if groupID == "" {
		http.Error(w, "groupId is required", http.StatusBadRequest)
		return
	}
	userID := r.URL.Query().Get("userId")

	snapshot, err := vc.VotingService.Snapshot(r.Context(), groupID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// GetTally returns the live vote aggregate for a group
func (vc *VotingController) GetTally(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]
	if groupID == "" {
		http.Error(w, "groupId is required", http.StatusBadRequest)
		return
	}

	tally, err := vc.VotingService.Tally(r.Context(), groupID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tally)
}
