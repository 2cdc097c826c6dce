package routes

import (
	"huddle_server/controllers"
	"huddle_server/services"

	"github.com/gorilla/mux"
)

// RegisterMatchingRoutes sets up routes for group placement under /api/matching
func RegisterMatchingRoutes(r *mux.Router, reshuffler *services.ReshuffleService) {
	controller := controllers.NewMatchingController(reshuffler)

	matchingRouter := r.PathPrefix("/api/matching").Subrouter()
	matchingRouter.HandleFunc("/me", controller.MatchMe).Methods("POST")
}
