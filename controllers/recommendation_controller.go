package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"gitalong_server/services"
)

// RecommendationController serves ranked candidates and engine diagnostics
type RecommendationController struct {
	RecommendationService *services.RecommendationService
}

// NewRecommendationController initializes the controller
func NewRecommendationController(service *services.RecommendationService) *RecommendationController {
	return &RecommendationController{RecommendationService: service}
}

// HandleGetRecommendations - fetch ranked candidates for the authenticated
// user. This endpoint degrades gracefully: engine trouble yields cached or
// empty results, never an error.
func (c *RecommendationController) HandleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	auth := authFromRequest(r)
	if auth.UserID == "" {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	query := r.URL.Query()
	maxCount, _ := strconv.Atoi(query.Get("max"))
	useCache := query.Get("cache") != "false"

	var excludeIDs []string
	if raw := query.Get("exclude"); raw != "" {
		excludeIDs = strings.Split(raw, ",")
	}

	recs := c.RecommendationService.GetRecommendations(r.Context(), auth.UserID, excludeIDs, maxCount, useCache)
	writeJSON(w, http.StatusOK, map[string]interface{}{"recommendations": recs})
}

// HandleBackendStatus - diagnostic health of the matching engine
func (c *RecommendationController) HandleBackendStatus(w http.ResponseWriter, r *http.Request) {
	status, err := c.RecommendationService.BackendStatus(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unreachable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, status)
}
