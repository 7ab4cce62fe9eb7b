package controllers

import (
	"encoding/json"
	"net/http"

	"gitalong_server/policy"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps boundary rejections to 400 and everything else to
// 500. Validation errors are final; infra errors carry a retry affordance.
func writeServiceError(w http.ResponseWriter, err error) {
	if policy.IsValidationError(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error, please retry")
}

// authFromRequest reads the identity the upstream auth layer injected. The
// server consumes authentication; it never performs it.
func authFromRequest(r *http.Request) policy.AuthContext {
	return policy.AuthContext{
		UserID:        r.Header.Get("X-User-Id"),
		EmailVerified: r.Header.Get("X-Email-Verified") == "true",
	}
}
