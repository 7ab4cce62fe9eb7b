package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gitalong_server/models"
	"gitalong_server/services"

	"github.com/gorilla/mux"
)

// UserProfileController handles profile reads and owner writes
type UserProfileController struct {
	ProfileService *services.UserProfileService
}

// NewUserProfileController initializes the controller
func NewUserProfileController(service *services.UserProfileService) *UserProfileController {
	return &UserProfileController{ProfileService: service}
}

// HandlePutProfile - create or update the caller's own profile
func (c *UserProfileController) HandlePutProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	auth := authFromRequest(r)
	if err := c.ProfileService.PutProfile(r.Context(), auth, profile); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "userId": profile.UserID})
}

// HandleGetProfile - fetch a profile by user id
func (c *UserProfileController) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	profile, err := c.ProfileService.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
