package routes

import (
	"gitalong_server/controllers"
	"gitalong_server/services"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes sets up routes for match operations under /api/matches
func RegisterMatchRoutes(r *mux.Router, matchService *services.MatchService) {
	controller := controllers.NewMatchController(matchService)

	matchRouter := r.PathPrefix("/api/matches").Subrouter()
	matchRouter.HandleFunc("", controller.HandleGetMatches).Methods("GET")
	matchRouter.HandleFunc("/{matchId}/status", controller.HandleUpdateMatchStatus).Methods("PATCH")
}
