package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okTickets(n int) []ExpoTicket {
	out := make([]ExpoTicket, n)
	for i := range out {
		out[i] = ExpoTicket{Status: "ok", ID: fmt.Sprintf("ticket-%d", i)}
	}
	return out
}

func TestExpo_SendReturnsTicketPerMessage(t *testing.T) {
	var received []ExpoMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var batch []ExpoMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))
		received = append(received, batch...)
		_ = json.NewEncoder(w).Encode(expoResponse{Data: okTickets(len(batch))})
	}))
	defer srv.Close()

	client := NewExpoClient(srv.URL)
	tickets, err := client.Send(context.Background(), []ExpoMessage{
		{
			To:        "ExponentPushToken[aaa]",
			Title:     "Driver arriving",
			Body:      "2 minutes away",
			Data:      map[string]string{"type": "ride_arrived", "ride_id": "ride-7"},
			Sound:     "default",
			Priority:  "high",
			ChannelID: "ride-updates",
		},
	})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "ok", tickets[0].Status)
	require.Len(t, received, 1)
	assert.Equal(t, "ExponentPushToken[aaa]", received[0].To)
	assert.Equal(t, "ride-updates", received[0].ChannelID)
}

func TestExpo_SendChunksLargeBatches(t *testing.T) {
	var batchSizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch []ExpoMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))
		batchSizes = append(batchSizes, len(batch))
		_ = json.NewEncoder(w).Encode(expoResponse{Data: okTickets(len(batch))})
	}))
	defer srv.Close()

	messages := make([]ExpoMessage, 250)
	for i := range messages {
		messages[i] = ExpoMessage{To: fmt.Sprintf("ExponentPushToken[%03d]", i), Title: "t", Body: "b"}
	}

	client := NewExpoClient(srv.URL)
	tickets, err := client.Send(context.Background(), messages)
	require.NoError(t, err)
	assert.Len(t, tickets, 250)
	assert.Equal(t, []int{100, 100, 50}, batchSizes)
}

func TestExpo_ServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewExpoClient(srv.URL)
	_, err := client.Send(context.Background(), []ExpoMessage{{To: "ExponentPushToken[aaa]"}})
	assert.Error(t, err)
}

func TestExpo_DeviceNotRegisteredTicket(t *testing.T) {
	dead := ExpoTicket{
		Status:  "error",
		Message: `"ExponentPushToken[bbb]" is not a registered push notification recipient`,
		Details: &ExpoTicketDetails{Error: "DeviceNotRegistered"},
	}
	assert.True(t, dead.DeviceNotRegistered())

	assert.False(t, ExpoTicket{Status: "ok"}.DeviceNotRegistered())
	assert.False(t, ExpoTicket{Status: "error", Details: &ExpoTicketDetails{Error: "MessageRateExceeded"}}.DeviceNotRegistered())
	assert.False(t, ExpoTicket{Status: "error"}.DeviceNotRegistered())
}

func TestExpo_EmptyURLUsesDefault(t *testing.T) {
	client := NewExpoClient("")
	assert.Equal(t, DefaultExpoURL, client.url)
}
