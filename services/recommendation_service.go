package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"gitalong_server/metrics"
	"gitalong_server/models"
)

// RecommendationService fetches ranked candidates from the external matching
// engine. The engine is a black box: this service owns the exclusion set, the
// cache, and the graceful-degradation policy. GetRecommendations never fails
// its caller: on engine trouble it serves the cache or an empty list.
type RecommendationService struct {
	EngineURL  string
	HTTPClient *http.Client
	Cache      RecommendationCache
	Swipes     *SwipeService

	mu  sync.Mutex
	seq map[string]uint64
}

// NewRecommendationService creates the engine client with a bounded timeout,
// so a slow engine falls back to cache instead of blocking the caller.
func NewRecommendationService(engineURL string, cache RecommendationCache, swipes *SwipeService) *RecommendationService {
	return &RecommendationService{
		EngineURL:  engineURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		Cache:      cache,
		Swipes:     swipes,
		seq:        map[string]uint64{},
	}
}

// GetRecommendations returns candidates ordered by descending score, with
// every already-swiped or explicitly excluded id filtered out. A newer call
// for the same user supersedes an older in-flight one: the stale result is
// discarded instead of overwriting fresher state.
func (rs *RecommendationService) GetRecommendations(ctx context.Context, userID string, excludeIDs []string, maxCount int, useCache bool) []models.Recommendation {
	if maxCount <= 0 {
		maxCount = 20
	}

	exclude := rs.exclusionSet(ctx, userID, excludeIDs)

	if useCache {
		if cached, ok := rs.Cache.Get(ctx, userID); ok {
			metrics.RecommendationRequests.WithLabelValues("cache").Inc()
			return filterRecommendations(cached, exclude, maxCount)
		}
	}

	requestSeq := rs.nextSeq(userID)

	recs, err := rs.queryEngine(ctx, userID, exclude, maxCount)
	if err != nil {
		log.Printf("⚠️ Matching engine unavailable for %s: %v", userID, err)
		if cached, ok := rs.Cache.Get(ctx, userID); ok {
			metrics.RecommendationRequests.WithLabelValues("cache").Inc()
			return filterRecommendations(cached, exclude, maxCount)
		}
		metrics.RecommendationRequests.WithLabelValues("empty").Inc()
		return []models.Recommendation{}
	}

	if rs.currentSeq(userID) != requestSeq {
		// A newer request took over while this one was in flight.
		log.Printf("ℹ️ Recommendation request for %s superseded, discarding result", userID)
		if cached, ok := rs.Cache.Get(ctx, userID); ok {
			return filterRecommendations(cached, exclude, maxCount)
		}
		return []models.Recommendation{}
	}

	rs.Cache.Set(ctx, userID, recs)
	metrics.RecommendationRequests.WithLabelValues("engine").Inc()
	return filterRecommendations(recs, exclude, maxCount)
}

// BackendStatus asks the engine for its health. This is a diagnostic surface
// and fails independently of GetRecommendations.
func (rs *RecommendationService) BackendStatus(ctx context.Context) (*models.BackendStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rs.EngineURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	resp, err := rs.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("matching engine unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("matching engine unhealthy: status %d", resp.StatusCode)
	}

	var status models.BackendStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode engine status: %w", err)
	}
	return &status, nil
}

// HandleSwipeCreated syncs swipe history to the engine for collaborative
// filtering. The engine upserts by (swiper, target, timestamp), so redelivery
// is harmless.
func (rs *RecommendationService) HandleSwipeCreated(ctx context.Context, event models.Event) error {
	swipe := event.Swipe
	if swipe == nil {
		return nil
	}
	payload := models.EngineSwipe{
		SwiperID:  swipe.SwiperID,
		TargetID:  swipe.TargetID,
		Direction: swipe.Direction,
		Timestamp: swipe.CreatedAt,
	}
	if err := rs.post(ctx, "/swipe", payload, nil); err != nil {
		return fmt.Errorf("failed to sync swipe %s: %w", swipe.ID, err)
	}
	// The exclusion set grew; cached candidates for this user are stale.
	rs.Cache.Invalidate(ctx, swipe.SwiperID)
	return nil
}

// SyncProfile pushes a profile update to the engine (POST /users/profile).
func (rs *RecommendationService) SyncProfile(ctx context.Context, profile models.UserProfile) error {
	return rs.post(ctx, "/users/profile", profile, nil)
}

func (rs *RecommendationService) queryEngine(ctx context.Context, userID string, exclude map[string]struct{}, maxCount int) ([]models.Recommendation, error) {
	excludeList := make([]string, 0, len(exclude))
	for id := range exclude {
		excludeList = append(excludeList, id)
	}
	sort.Strings(excludeList)

	request := models.EngineRequest{
		UserID:             userID,
		ExcludeUserIDs:     excludeList,
		MaxRecommendations: maxCount,
		IncludeAnalytics:   false,
	}

	start := time.Now()
	var response models.EngineResponse
	err := rs.post(ctx, "/recommendations", request, &response)
	metrics.EngineLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	recs := make([]models.Recommendation, 0, len(response.Recommendations))
	for _, r := range response.Recommendations {
		recs = append(recs, models.Recommendation{
			CandidateID:  r.UID,
			MatchScore:   r.MatchScore,
			Profile:      r.Profile,
			MatchReasons: r.MatchReasons,
		})
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].MatchScore > recs[j].MatchScore
	})
	return recs, nil
}

func (rs *RecommendationService) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rs.EngineURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := rs.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("matching engine returned status %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode engine response: %w", err)
		}
	}
	return nil
}

// exclusionSet merges the caller's excludes with every target the user has
// already swiped on, plus the user themselves. Excluded ids never resurface
// even if the engine misbehaves.
func (rs *RecommendationService) exclusionSet(ctx context.Context, userID string, excludeIDs []string) map[string]struct{} {
	exclude := map[string]struct{}{userID: {}}
	for _, id := range excludeIDs {
		exclude[id] = struct{}{}
	}

	swiped, err := rs.Swipes.SwipedTargetIDs(ctx, userID)
	if err != nil {
		log.Printf("⚠️ Failed to load swiped targets for %s: %v", userID, err)
	}
	for _, id := range swiped {
		exclude[id] = struct{}{}
	}
	return exclude
}

func filterRecommendations(recs []models.Recommendation, exclude map[string]struct{}, maxCount int) []models.Recommendation {
	out := make([]models.Recommendation, 0, len(recs))
	for _, rec := range recs {
		if _, excluded := exclude[rec.CandidateID]; excluded {
			continue
		}
		out = append(out, rec)
		if len(out) == maxCount {
			break
		}
	}
	return out
}

func (rs *RecommendationService) nextSeq(userID string) uint64 {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.seq[userID]++
	return rs.seq[userID]
}

func (rs *RecommendationService) currentSeq(userID string) uint64 {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.seq[userID]
}
