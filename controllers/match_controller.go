package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gitalong_server/services"

	"github.com/gorilla/mux"
)

// MatchController handles match listing and status updates
type MatchController struct {
	MatchService *services.MatchService
}

// NewMatchController initializes the controller
func NewMatchController(service *services.MatchService) *MatchController {
	return &MatchController{MatchService: service}
}

// HandleGetMatches - fetch all matches for the authenticated user
func (c *MatchController) HandleGetMatches(w http.ResponseWriter, r *http.Request) {
	auth := authFromRequest(r)
	if auth.UserID == "" {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	matches, err := c.MatchService.GetMatchesByUser(r.Context(), auth.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// HandleUpdateMatchStatus - status-only mutation by a participant
func (c *MatchController) HandleUpdateMatchStatus(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]

	var request struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	auth := authFromRequest(r)
	match, err := c.MatchService.UpdateMatchStatus(r.Context(), auth, matchID, request.Status)
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			writeError(w, http.StatusNotFound, "Match not found")
			return
		}
		if errors.Is(err, services.ErrConditionFailed) {
			writeError(w, http.StatusConflict, "Match was modified concurrently, please retry")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}
