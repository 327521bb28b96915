package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/JSC875/ride-notify/internal/model"
	"github.com/JSC875/ride-notify/internal/repository"
	"github.com/JSC875/ride-notify/internal/ws"
	"github.com/JSC875/ride-notify/notify"
	"github.com/JSC875/ride-notify/pkg/push"
	"github.com/redis/go-redis/v9"
)

// SendService fans a server-initiated notification out to every active
// device of the requested users, honoring the server-side preference mirror:
// a user whose mirror disables push is never addressed.
type SendService struct {
	devices *repository.DeviceRepository
	prefs   *repository.PreferenceRepository
	history *repository.NotificationRepository
	expo    *push.ExpoClient
	fcm     *push.FCMSender
	hub     *ws.Hub
	rdb     *redis.Client
}

func NewSendService(
	devices *repository.DeviceRepository,
	prefs *repository.PreferenceRepository,
	history *repository.NotificationRepository,
	expo *push.ExpoClient,
	fcm *push.FCMSender,
	hub *ws.Hub,
	rdb *redis.Client,
) *SendService {
	return &SendService{
		devices: devices,
		prefs:   prefs,
		history: history,
		expo:    expo,
		fcm:     fcm,
		hub:     hub,
		rdb:     rdb,
	}
}

// CheckIdempotency remembers a correlation id briefly so a retried send
// request does not deliver twice.
func (s *SendService) CheckIdempotency(ctx context.Context, correlationID string) (bool, error) {
	if correlationID == "" {
		return false, nil
	}
	key := "ridenotify:send:" + correlationID
	set, err := s.rdb.SetNX(ctx, key, "processing", 5*time.Minute).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}

// Send resolves recipients to active device tokens, filters by preference,
// and delivers through the Expo push service (Expo tokens) or FCM (raw
// tokens). Dead tokens reported by either transport are deactivated. One
// history row is recorded per recipient, and foreground clients get the
// event over their socket.
func (s *SendService) Send(ctx context.Context, req model.SendNotificationRequest) (*model.SendReport, error) {
	if req.Type == "" {
		req.Type = model.NotificationTypeGeneral
	}

	enabled, err := s.prefs.PushEnabledSet(req.UserIDs)
	if err != nil {
		return nil, errors.New("failed to resolve preferences")
	}

	report := &model.SendReport{Requested: len(req.UserIDs)}
	recipients := make([]uuid.UUID, 0, len(req.UserIDs))
	for _, id := range req.UserIDs {
		if enabled[id] {
			recipients = append(recipients, id)
			continue
		}
		report.Skipped = append(report.Skipped, id)
		sendsSkippedTotal.Inc()
		s.record(id, req, model.NotificationStatusSkipped)
	}
	if len(recipients) == 0 {
		return report, nil
	}

	tokens, err := s.devices.FindActiveByUserIDs(recipients)
	if err != nil {
		return nil, errors.New("failed to resolve device tokens")
	}

	data := make(map[string]string, len(req.Data)+1)
	for k, v := range req.Data {
		data[k] = v
	}
	data["type"] = string(req.Type)

	channelID := channelFor(req.Type)
	high := isHighPriority(req.Type)

	// Partition by transport: Expo-issued tokens vs raw FCM tokens
	var expoMessages []push.ExpoMessage
	var fcmTokens []string
	for _, t := range tokens {
		if t.IsExpo() {
			priority := "default"
			if high {
				priority = "high"
			}
			expoMessages = append(expoMessages, push.ExpoMessage{
				To:        t.Value,
				Title:     req.Title,
				Body:      req.Body,
				Data:      data,
				Sound:     "default",
				Priority:  priority,
				ChannelID: channelID,
			})
		} else {
			fcmTokens = append(fcmTokens, t.Value)
		}
	}

	delivered, failed := s.deliverExpo(ctx, expoMessages)
	report.Delivered += delivered
	report.Failed += failed

	delivered, failed = s.deliverFCM(ctx, fcmTokens, req, data, channelID, high)
	report.Delivered += delivered
	report.Failed += failed

	status := model.NotificationStatusSent
	if report.Delivered == 0 && report.Failed > 0 {
		status = model.NotificationStatusFailed
	}
	for _, id := range recipients {
		s.record(id, req, status)
	}

	// Foreground clients get the event immediately over their socket
	s.hub.SendToUsers(recipients, &model.WSEvent{
		Type:       model.WSEventNotification,
		Payload:    eventPayload(req),
		ReceivedAt: time.Now(),
	})

	return report, nil
}

func (s *SendService) deliverExpo(ctx context.Context, messages []push.ExpoMessage) (delivered, failed int) {
	if len(messages) == 0 {
		return 0, 0
	}

	tickets, err := s.expo.Send(ctx, messages)
	if err != nil {
		log.Printf("⚠️ Expo push send failed: %v", err)
		deliveriesTotal.WithLabelValues("expo", "failed").Add(float64(len(messages)))
		return 0, len(messages)
	}

	for i, ticket := range tickets {
		if ticket.Status == "ok" {
			delivered++
			deliveriesTotal.WithLabelValues("expo", "ok").Inc()
			continue
		}
		failed++
		deliveriesTotal.WithLabelValues("expo", "error").Inc()
		log.Printf("⚠️ Expo ticket error for %s: %s", messages[i].To, ticket.Message)
		if ticket.DeviceNotRegistered() {
			if err := s.devices.DeactivateByValue(messages[i].To); err == nil {
				tokensDeactivatedTotal.Inc()
			}
		}
	}
	return delivered, failed
}

func (s *SendService) deliverFCM(
	ctx context.Context,
	tokens []string,
	req model.SendNotificationRequest,
	data map[string]string,
	channelID string,
	high bool,
) (delivered, failed int) {
	if len(tokens) == 0 {
		return 0, 0
	}

	dead, err := s.fcm.Send(ctx, tokens, req.Title, req.Body, data, channelID, high)
	if err != nil {
		log.Printf("⚠️ FCM send failed: %v", err)
		deliveriesTotal.WithLabelValues("fcm", "failed").Add(float64(len(tokens)))
		return 0, len(tokens)
	}

	for _, value := range dead {
		if err := s.devices.DeactivateByValue(value); err == nil {
			tokensDeactivatedTotal.Inc()
		}
	}
	delivered = len(tokens) - len(dead)
	failed = len(dead)
	deliveriesTotal.WithLabelValues("fcm", "ok").Add(float64(delivered))
	deliveriesTotal.WithLabelValues("fcm", "error").Add(float64(failed))
	return delivered, failed
}

func (s *SendService) record(userID uuid.UUID, req model.SendNotificationRequest, status string) {
	err := s.history.Create(&model.Notification{
		UserID: userID,
		Type:   req.Type,
		Title:  req.Title,
		Body:   req.Body,
		Data:   req.Data,
		Status: status,
	})
	if err != nil {
		log.Printf("⚠️ Failed to record notification for %s: %v", userID, err)
	}
}

// channelFor maps a notification type to the delivery channel the mobile
// clients declare at startup.
func channelFor(t model.NotificationType) string {
	switch t {
	case model.NotificationTypeChat:
		return notify.ChannelChat
	case model.NotificationTypePromo:
		return notify.ChannelPromotions
	default:
		return notify.ChannelRideUpdates
	}
}

// isHighPriority marks the time-critical variants for sticky delivery
func isHighPriority(t model.NotificationType) bool {
	switch t {
	case model.NotificationTypeRideRequest,
		model.NotificationTypeRideAccepted,
		model.NotificationTypeRideArrived,
		model.NotificationTypeRideStarted,
		model.NotificationTypeChat,
		model.NotificationTypePaymentFailed:
		return true
	default:
		return false
	}
}

// eventPayload builds the socket event payload for a send request
func eventPayload(req model.SendNotificationRequest) model.NotificationData {
	return model.NotificationData{
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Body,
		ChannelID: channelFor(req.Type),
	}
}
