package routes

import (
	"huddle_server/controllers"
	"huddle_server/services"

	"github.com/gorilla/mux"
)

// RegisterVotingRoutes sets up routes for votes and lifecycle reads
func RegisterVotingRoutes(r *mux.Router, votingService *services.VotingService) {
	controller := controllers.NewVotingController(votingService)

	r.HandleFunc("/api/votes", controller.CastVote).Methods("POST")

	groupRouter := r.PathPrefix("/api/groups").Subrouter()
	groupRouter.HandleFunc("/{groupId}/lifecycle", controller.GetLifecycle).Methods("GET")
	groupRouter.HandleFunc("/{groupId}/tally", controller.GetTally).Methods("GET")
}
