package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gitalong_server/models"
	"gitalong_server/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopBus struct{}

func (noopBus) Publish(ctx context.Context, event models.Event) error { return nil }

func newSwipeRouter() *mux.Router {
	svc := &services.SwipeService{Store: services.NewMemoryStore(), Bus: noopBus{}}
	controller := NewSwipeController(svc)
	r := mux.NewRouter()
	r.HandleFunc("/api/swipes", controller.HandleRecordSwipe).Methods("POST")
	return r
}

func postSwipe(t *testing.T, router *mux.Router, userID, verified, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/swipes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	req.Header.Set("X-Email-Verified", verified)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleRecordSwipe(t *testing.T) {
	router := newSwipeRouter()

	t.Run("created", func(t *testing.T) {
		rec := postSwipe(t, router, "alice", "true",
			`{"target_id":"bob","direction":"right","target_type":"user"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var response map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.NotEmpty(t, response["id"])
		assert.NotEmpty(t, response["created_at"])
	})

	t.Run("validation failure is 400", func(t *testing.T) {
		rec := postSwipe(t, router, "alice", "true",
			`{"target_id":"alice","direction":"right","target_type":"user"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unverified caller is 400", func(t *testing.T) {
		rec := postSwipe(t, router, "alice", "false",
			`{"target_id":"bob","direction":"right","target_type":"user"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		rec := postSwipe(t, router, "alice", "true", `{not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
