package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PushGateway delivers one push message and returns the gateway's delivery id.
type PushGateway interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) (string, error)
}

// GatewayError is a verdict from the push gateway. Terminal errors (invalid or
// expired token, rejected message) are recorded on the job and never retried;
// non-terminal errors leave the job pending for redelivery.
type GatewayError struct {
	StatusCode int
	Message    string
	Terminal   bool
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("push gateway error (%d): %s", e.StatusCode, e.Message)
}

// HTTPPushGateway talks to an Expo-style push endpoint.
type HTTPPushGateway struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewHTTPPushGateway creates a gateway client with a bounded request timeout.
func NewHTTPPushGateway(baseURL string) *HTTPPushGateway {
	return &HTTPPushGateway{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type pushRequest struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

type pushResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// Send posts the message to the gateway. Transport failures come back as
// plain errors (no verdict was reached); HTTP responses become GatewayError
// verdicts, terminal for 4xx and retryable for 5xx.
func (g *HTTPPushGateway) Send(ctx context.Context, token, title, body string, data map[string]string) (string, error) {
	payload, err := json.Marshal(pushRequest{To: token, Title: title, Body: body, Data: data})
	if err != nil {
		return "", fmt.Errorf("failed to marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/send", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("push gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	var result pushResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&result); decodeErr != nil && resp.StatusCode < 300 {
		return "", fmt.Errorf("failed to decode push response: %w", decodeErr)
	}

	switch {
	case resp.StatusCode >= 500:
		return "", &GatewayError{StatusCode: resp.StatusCode, Message: result.Error, Terminal: false}
	case resp.StatusCode >= 400:
		return "", &GatewayError{StatusCode: resp.StatusCode, Message: result.Error, Terminal: true}
	}
	if result.Error != "" {
		// 2xx with an error body means the gateway accepted the request but
		// rejected the token (e.g. DeviceNotRegistered).
		return "", &GatewayError{StatusCode: resp.StatusCode, Message: result.Error, Terminal: true}
	}
	return result.ID, nil
}
