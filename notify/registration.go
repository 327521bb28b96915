package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/JSC875/ride-notify/internal/model"
)

const registrationTimeout = 15 * time.Second

// RegistrationClient talks to the remote registration endpoints. Any
// non-2xx, timeout or open-breaker result is reported as ErrRegistration,
// which callers treat as a soft failure.
type RegistrationClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

func NewRegistrationClient(baseURL string) *RegistrationClient {
	settings := gobreaker.Settings{
		Name:        "token-registration",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     1 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.TotalFailures >= 3
		},
	}
	return &RegistrationClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: registrationTimeout},
		breaker:    gobreaker.NewCircuitBreaker(settings),
	}
}

// Register POSTs the device token to /api/notifications/register. Success is
// any 2xx status; there is no response body contract beyond that.
func (c *RegistrationClient) Register(ctx context.Context, token model.DeviceToken) error {
	return c.post(ctx, "/api/notifications/register", token)
}

// Unregister POSTs the token value to /api/notifications/unregister
func (c *RegistrationClient) Unregister(ctx context.Context, tokenValue string) error {
	return c.post(ctx, "/api/notifications/unregister", map[string]string{"token": tokenValue})
}

func (c *RegistrationClient) post(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegistration, err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegistration, err)
	}
	return nil
}
