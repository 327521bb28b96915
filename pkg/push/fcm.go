package push

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMSender delivers to raw FCM tokens (the bare Android build that does not
// go through the Expo push service). A nil sender is valid and silently
// drops everything, so missing credentials never block server startup.
type FCMSender struct {
	client *messaging.Client
}

// NewFCMSender initializes the Firebase messaging client
func NewFCMSender(credentialsFile string) (*FCMSender, error) {
	if credentialsFile == "" {
		log.Println("⚠️ Firebase credentials not provided, FCM delivery disabled")
		return nil, nil
	}

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		// Log warning instead of error to not block server startup
		log.Printf("⚠️ Failed to initialize Firebase app: %v (FCM delivery disabled)", err)
		return nil, nil
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("⚠️ Failed to get messaging client: %v", err)
		return nil, nil
	}

	log.Println("✅ Firebase FCM initialized")
	return &FCMSender{client: client}, nil
}

// Send delivers one notification to the given tokens and returns the tokens
// FCM reported as unregistered, so callers can deactivate them.
func (s *FCMSender) Send(
	ctx context.Context,
	tokens []string,
	title, body string,
	data map[string]string,
	channelID string,
	highPriority bool,
) ([]string, error) {
	if s == nil || s.client == nil || len(tokens) == 0 {
		return nil, nil
	}

	priority := "normal"
	if highPriority {
		priority = "high"
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: priority,
			Notification: &messaging.AndroidNotification{
				ChannelID: channelID,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	br, err := s.client.SendMulticast(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("error sending multicast message: %w", err)
	}

	var dead []string
	if br.FailureCount > 0 {
		for idx, resp := range br.Responses {
			if resp.Success {
				continue
			}
			log.Printf("⚠️ FCM failure for token %s: %v", tokens[idx], resp.Error)
			if messaging.IsUnregistered(resp.Error) {
				dead = append(dead, tokens[idx])
			}
		}
	}
	return dead, nil
}
