package routes

import (
	"gitalong_server/controllers"
	"gitalong_server/services"

	"github.com/gorilla/mux"
)

// RegisterUserProfileRoutes sets up routes for profiles under /api/profiles
func RegisterUserProfileRoutes(r *mux.Router, profileService *services.UserProfileService) {
	controller := controllers.NewUserProfileController(profileService)

	profileRouter := r.PathPrefix("/api/profiles").Subrouter()
	profileRouter.HandleFunc("", controller.HandlePutProfile).Methods("PUT")
	profileRouter.HandleFunc("/{userId}", controller.HandleGetProfile).Methods("GET")
}
