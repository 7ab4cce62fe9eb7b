package models

// Recommendation is one ranked candidate returned to the client.
type Recommendation struct {
	CandidateID  string      `json:"candidateId"`
	MatchScore   float64     `json:"matchScore"` // in [0,1]
	Profile      UserProfile `json:"profile"`
	MatchReasons []string    `json:"matchReasons"`
}

// EngineRequest is the request body for the external matching engine's
// POST /recommendations endpoint.
type EngineRequest struct {
	UserID             string   `json:"userId"`
	ExcludeUserIDs     []string `json:"excludeUserIds"`
	MaxRecommendations int      `json:"maxRecommendations"`
	IncludeAnalytics   bool     `json:"includeAnalytics"`
}

// EngineRecommendation is one scored candidate as the engine reports it.
type EngineRecommendation struct {
	UID          string      `json:"uid"`
	MatchScore   float64     `json:"matchScore"`
	Profile      UserProfile `json:"profile"`
	MatchReasons []string    `json:"matchReasons"`
}

// EngineResponse is the matching engine's response envelope.
type EngineResponse struct {
	Recommendations []EngineRecommendation `json:"recommendations"`
	BackendStatus   string                 `json:"backendStatus,omitempty"`
}

// EngineSwipe is the swipe-history record synced to the engine for
// collaborative filtering (POST /swipe).
type EngineSwipe struct {
	SwiperID  string `json:"swiper_id"`
	TargetID  string `json:"target_id"`
	Direction string `json:"direction"`
	Timestamp string `json:"timestamp"`
}

// BackendStatus reports the engine's health for diagnostic display. It is
// queried independently of recommendations and may fail on its own.
type BackendStatus struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}
