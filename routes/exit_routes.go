package routes

import (
	"huddle_server/controllers"
	"huddle_server/services"

	"github.com/gorilla/mux"
)

// RegisterExitRoutes sets up routes for exit windows under /api/exit
func RegisterExitRoutes(r *mux.Router, exitService *services.ExitService, reshuffler *services.ReshuffleService) {
	controller := controllers.NewExitController(exitService, reshuffler)

	exitRouter := r.PathPrefix("/api/exit").Subrouter()
	exitRouter.HandleFunc("/opportunity", controller.GetOpportunity).Methods("GET")
	exitRouter.HandleFunc("/consume", controller.RequestExit).Methods("POST")
}
