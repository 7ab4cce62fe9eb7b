package routes

import (
	"gitalong_server/controllers"
	"gitalong_server/services"

	"github.com/gorilla/mux"
)

// RegisterSwipeRoutes sets up routes for swipe recording under /api/swipes
func RegisterSwipeRoutes(r *mux.Router, swipeService *services.SwipeService) {
	controller := controllers.NewSwipeController(swipeService)

	swipeRouter := r.PathPrefix("/api/swipes").Subrouter()
	swipeRouter.HandleFunc("", controller.HandleRecordSwipe).Methods("POST")
}
