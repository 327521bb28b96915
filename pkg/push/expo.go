package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// DefaultExpoURL is the Expo push service endpoint
const DefaultExpoURL = "https://exp.host/--/api/v2/push/send"

// The push service accepts at most 100 messages per request
const expoChunkSize = 100

// ExpoMessage is one message in the push service request body
type ExpoMessage struct {
	To        string            `json:"to"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	Sound     string            `json:"sound,omitempty"`
	Priority  string            `json:"priority,omitempty"`
	ChannelID string            `json:"channelId,omitempty"`
}

// ExpoTicket is the per-message receipt in the push service response
type ExpoTicket struct {
	Status  string             `json:"status"` // "ok" or "error"
	ID      string             `json:"id,omitempty"`
	Message string             `json:"message,omitempty"`
	Details *ExpoTicketDetails `json:"details,omitempty"`
}

type ExpoTicketDetails struct {
	Error string `json:"error,omitempty"`
}

// DeviceNotRegistered reports the one error class we act on: the token is
// dead and its device row should be deactivated. Everything else is logged;
// delivery retry is the push service's responsibility, not ours.
func (t ExpoTicket) DeviceNotRegistered() bool {
	return t.Status == "error" && t.Details != nil && t.Details.Error == "DeviceNotRegistered"
}

type expoResponse struct {
	Data []ExpoTicket `json:"data"`
}

// ExpoClient sends push messages through the Expo push service. The HTTP
// call is wrapped in a circuit breaker so a push-service outage cannot stall
// every send fan-out behind 10s timeouts.
type ExpoClient struct {
	url        string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewExpoClient creates a client for the given push endpoint; an empty url
// selects the production Expo endpoint.
func NewExpoClient(url string) *ExpoClient {
	if url == "" {
		url = DefaultExpoURL
	}
	settings := gobreaker.Settings{
		Name:        "expo-push",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     1 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.TotalFailures >= 3
		},
	}
	return &ExpoClient{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker:    gobreaker.NewCircuitBreaker(settings),
	}
}

// Send posts the messages in chunks of 100 and returns one ticket per
// message, in order.
func (c *ExpoClient) Send(ctx context.Context, messages []ExpoMessage) ([]ExpoTicket, error) {
	tickets := make([]ExpoTicket, 0, len(messages))
	for start := 0; start < len(messages); start += expoChunkSize {
		end := start + expoChunkSize
		if end > len(messages) {
			end = len(messages)
		}
		chunk, err := c.sendChunk(ctx, messages[start:end])
		if err != nil {
			return tickets, err
		}
		tickets = append(tickets, chunk...)
	}
	return tickets, nil
}

func (c *ExpoClient) sendChunk(ctx context.Context, messages []ExpoMessage) ([]ExpoTicket, error) {
	payload, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("marshal push messages: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("push service status %d", resp.StatusCode)
		}

		var parsed expoResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, fmt.Errorf("decode push response: %w", err)
		}
		return parsed.Data, nil
	})
	if err != nil {
		return nil, fmt.Errorf("expo push send: %w", err)
	}
	return result.([]ExpoTicket), nil
}
