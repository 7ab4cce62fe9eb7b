package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatewayReturning(t *testing.T, status int, body pushResponse) *HTTPPushGateway {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send", r.URL.Path)
		var req pushRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.To)
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return NewHTTPPushGateway(server.URL)
}

func TestHTTPPushGatewaySend(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted", func(t *testing.T) {
		g := gatewayReturning(t, http.StatusOK, pushResponse{ID: "d-1"})
		id, err := g.Send(ctx, "tok", "title", "body", nil)
		require.NoError(t, err)
		assert.Equal(t, "d-1", id)
	})

	t.Run("5xx is retryable", func(t *testing.T) {
		g := gatewayReturning(t, http.StatusServiceUnavailable, pushResponse{Error: "overloaded"})
		_, err := g.Send(ctx, "tok", "title", "body", nil)
		var verdict *GatewayError
		require.ErrorAs(t, err, &verdict)
		assert.False(t, verdict.Terminal)
	})

	t.Run("4xx is terminal", func(t *testing.T) {
		g := gatewayReturning(t, http.StatusBadRequest, pushResponse{Error: "bad token"})
		_, err := g.Send(ctx, "tok", "title", "body", nil)
		var verdict *GatewayError
		require.ErrorAs(t, err, &verdict)
		assert.True(t, verdict.Terminal)
	})

	t.Run("2xx with error body is terminal", func(t *testing.T) {
		g := gatewayReturning(t, http.StatusOK, pushResponse{Error: "DeviceNotRegistered"})
		_, err := g.Send(ctx, "tok", "title", "body", nil)
		var verdict *GatewayError
		require.ErrorAs(t, err, &verdict)
		assert.True(t, verdict.Terminal)
		assert.Contains(t, verdict.Message, "DeviceNotRegistered")
	})

	t.Run("transport failure carries no verdict", func(t *testing.T) {
		g := NewHTTPPushGateway("http://127.0.0.1:1")
		_, err := g.Send(ctx, "tok", "title", "body", nil)
		require.Error(t, err)
		var verdict *GatewayError
		assert.False(t, errors.As(err, &verdict))
	})
}
