package controllers

import (
	"encoding/json"
	"log"
	"net/http"

	"gitalong_server/services"
)

// SwipeController handles swipe recording
type SwipeController struct {
	SwipeService *services.SwipeService
}

// NewSwipeController initializes the controller
func NewSwipeController(service *services.SwipeService) *SwipeController {
	return &SwipeController{SwipeService: service}
}

// HandleRecordSwipe - record a one-directional interest signal
func (c *SwipeController) HandleRecordSwipe(w http.ResponseWriter, r *http.Request) {
	var request struct {
		TargetID   string `json:"target_id"`
		Direction  string `json:"direction"`
		TargetType string `json:"target_type"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	auth := authFromRequest(r)
	log.Printf("👆 %s swiping %s on %s", auth.UserID, request.Direction, request.TargetID)

	swipe, err := c.SwipeService.RecordSwipe(r.Context(), auth, auth.UserID, request.TargetID, request.Direction, request.TargetType)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": swipe.ID, "created_at": swipe.CreatedAt})
}
