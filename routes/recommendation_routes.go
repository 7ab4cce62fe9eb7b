package routes

import (
	"gitalong_server/controllers"
	"gitalong_server/services"

	"github.com/gorilla/mux"
)

// RegisterRecommendationRoutes sets up routes under /api/recommendations
func RegisterRecommendationRoutes(r *mux.Router, recommendationService *services.RecommendationService) {
	controller := controllers.NewRecommendationController(recommendationService)

	recRouter := r.PathPrefix("/api/recommendations").Subrouter()
	recRouter.HandleFunc("", controller.HandleGetRecommendations).Methods("GET")
	recRouter.HandleFunc("/status", controller.HandleBackendStatus).Methods("GET")
}
