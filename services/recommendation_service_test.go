package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"gitalong_server/models"
	"gitalong_server/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func engineWith(t *testing.T, recs []models.EngineRecommendation) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/recommendations":
			calls.Add(1)
			var req models.EngineRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			json.NewEncoder(w).Encode(models.EngineResponse{Recommendations: recs})
		case "/swipe", "/users/profile":
			w.WriteHeader(http.StatusOK)
		case "/health":
			json.NewEncoder(w).Encode(models.BackendStatus{Status: "healthy", Version: "1.0"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newRecFixture(t *testing.T, engineURL string) (*RecommendationService, *SwipeService) {
	t.Helper()
	store := NewMemoryStore()
	swipes := &SwipeService{Store: store, Bus: &capturingBus{}}
	return NewRecommendationService(engineURL, NewMemoryRecommendationCache(time.Minute), swipes), swipes
}

func candidate(uid string, score float64) models.EngineRecommendation {
	return models.EngineRecommendation{
		UID: uid, MatchScore: score,
		Profile: models.UserProfile{UserID: uid, DisplayName: uid},
	}
}

func TestGetRecommendationsRanksAndFilters(t *testing.T) {
	engine, _ := engineWith(t, []models.EngineRecommendation{
		candidate("bob", 0.4),
		candidate("carol", 0.9),
		candidate("dave", 0.7),
		candidate("alice", 1.0), // the requester themselves; must never surface
	})
	svc, _ := newRecFixture(t, engine.URL)

	recs := svc.GetRecommendations(context.Background(), "alice", nil, 10, false)
	require.Len(t, recs, 3)
	assert.Equal(t, "carol", recs[0].CandidateID)
	assert.Equal(t, "dave", recs[1].CandidateID)
	assert.Equal(t, "bob", recs[2].CandidateID)
}

func TestGetRecommendationsExcludesSwipedTargets(t *testing.T) {
	engine, _ := engineWith(t, []models.EngineRecommendation{
		candidate("bob", 0.9),
		candidate("carol", 0.8),
	})
	svc, swipes := newRecFixture(t, engine.URL)
	ctx := context.Background()

	_, err := swipes.RecordSwipe(ctx, policy.AuthContext{UserID: "alice", EmailVerified: true},
		"alice", "bob", models.DirectionLeft, models.TargetTypeUser)
	require.NoError(t, err)

	recs := svc.GetRecommendations(ctx, "alice", nil, 10, false)
	require.Len(t, recs, 1)
	assert.Equal(t, "carol", recs[0].CandidateID)

	// Explicit excludes filter even cached results.
	recs = svc.GetRecommendations(ctx, "alice", []string{"carol"}, 10, true)
	assert.Empty(t, recs)
}

func TestGetRecommendationsServesCache(t *testing.T) {
	engine, calls := engineWith(t, []models.EngineRecommendation{candidate("bob", 0.9)})
	svc, _ := newRecFixture(t, engine.URL)
	ctx := context.Background()

	first := svc.GetRecommendations(ctx, "alice", nil, 10, true)
	require.Len(t, first, 1)
	second := svc.GetRecommendations(ctx, "alice", nil, 10, true)
	require.Len(t, second, 1)

	assert.Equal(t, int64(1), calls.Load(), "second call must be served from cache")
}

func TestEngineFailureFallsBackGracefully(t *testing.T) {
	engine, _ := engineWith(t, []models.EngineRecommendation{candidate("bob", 0.9)})
	svc, _ := newRecFixture(t, engine.URL)
	ctx := context.Background()

	// Warm the cache, then kill the engine.
	warm := svc.GetRecommendations(ctx, "alice", nil, 10, false)
	require.Len(t, warm, 1)
	engine.Close()

	// Cache still answers.
	recs := svc.GetRecommendations(ctx, "alice", nil, 10, false)
	require.Len(t, recs, 1)
	assert.Equal(t, "bob", recs[0].CandidateID)

	// No cache entry at all degrades to an empty list, never an error.
	recs = svc.GetRecommendations(ctx, "nobody", nil, 10, false)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestMaxCountBoundsResult(t *testing.T) {
	engine, _ := engineWith(t, []models.EngineRecommendation{
		candidate("bob", 0.9), candidate("carol", 0.8), candidate("dave", 0.7),
	})
	svc, _ := newRecFixture(t, engine.URL)

	recs := svc.GetRecommendations(context.Background(), "alice", nil, 2, false)
	assert.Len(t, recs, 2)
}

func TestSupersededRequestDiscardsStaleResult(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int64
	engine := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recommendations" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if calls.Add(1) == 1 {
			// Hold the first request open until the second one has finished.
			close(arrived)
			<-release
			json.NewEncoder(w).Encode(models.EngineResponse{
				Recommendations: []models.EngineRecommendation{candidate("stale", 0.9)},
			})
			return
		}
		json.NewEncoder(w).Encode(models.EngineResponse{
			Recommendations: []models.EngineRecommendation{candidate("fresh", 0.9)},
		})
	}))
	t.Cleanup(engine.Close)

	svc, _ := newRecFixture(t, engine.URL)
	ctx := context.Background()

	firstResult := make(chan []models.Recommendation, 1)
	go func() {
		firstResult <- svc.GetRecommendations(ctx, "alice", nil, 10, false)
	}()
	<-arrived

	// A newer call for the same user takes over while the first is in flight.
	fresh := svc.GetRecommendations(ctx, "alice", nil, 10, false)
	require.Len(t, fresh, 1)
	assert.Equal(t, "fresh", fresh[0].CandidateID)

	close(release)
	first := <-firstResult

	// The superseded call never surfaces its own engine result; it serves
	// whatever the newer call cached.
	require.Len(t, first, 1)
	assert.Equal(t, "fresh", first[0].CandidateID)

	cached, ok := svc.Cache.Get(ctx, "alice")
	require.True(t, ok)
	require.Len(t, cached, 1)
	assert.Equal(t, "fresh", cached[0].CandidateID, "stale result must not overwrite the cache")
}

func TestHandleSwipeCreatedSyncsAndInvalidates(t *testing.T) {
	engine, calls := engineWith(t, []models.EngineRecommendation{candidate("bob", 0.9)})
	svc, _ := newRecFixture(t, engine.URL)
	ctx := context.Background()

	// Warm the cache for alice.
	svc.GetRecommendations(ctx, "alice", nil, 10, true)
	require.Equal(t, int64(1), calls.Load())

	event := models.Event{
		ID:   "s1",
		Type: models.EventSwipeCreated,
		Swipe: &models.Swipe{
			ID: "s1", SwiperID: "alice", TargetID: "bob",
			Direction: models.DirectionRight, CreatedAt: "2026-01-01T00:00:00Z",
		},
	}
	require.NoError(t, svc.HandleSwipeCreated(ctx, event))

	// The cache was invalidated, so the next cached call hits the engine again.
	svc.GetRecommendations(ctx, "alice", nil, 10, true)
	assert.Equal(t, int64(2), calls.Load())
}

func TestBackendStatus(t *testing.T) {
	engine, _ := engineWith(t, nil)
	svc, _ := newRecFixture(t, engine.URL)

	status, err := svc.BackendStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status.Status)

	engine.Close()
	_, err = svc.BackendStatus(context.Background())
	require.Error(t, err)
}

func TestMemoryRecommendationCacheExpiry(t *testing.T) {
	cache := NewMemoryRecommendationCache(10 * time.Millisecond)
	ctx := context.Background()

	cache.Set(ctx, "alice", []models.Recommendation{{CandidateID: "bob"}})
	_, ok := cache.Get(ctx, "alice")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.Get(ctx, "alice")
	assert.False(t, ok)

	cache.Set(ctx, "alice", []models.Recommendation{{CandidateID: "bob"}})
	cache.Invalidate(ctx, "alice")
	_, ok = cache.Get(ctx, "alice")
	assert.False(t, ok)
}
