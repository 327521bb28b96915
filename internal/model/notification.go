package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType discriminates the notification payload variants
type NotificationType string

const (
	NotificationTypeRideRequest   NotificationType = "ride_request"
	NotificationTypeRideAccepted  NotificationType = "ride_accepted"
	NotificationTypeRideArrived   NotificationType = "ride_arrived"
	NotificationTypeRideStarted   NotificationType = "ride_started"
	NotificationTypeRideCompleted NotificationType = "ride_completed"
	NotificationTypePayment       NotificationType = "payment"
	NotificationTypePaymentFailed NotificationType = "payment_failed"
	NotificationTypePromo         NotificationType = "promo"
	NotificationTypeChat          NotificationType = "chat"
	NotificationTypeGeneral       NotificationType = "general"
)

// Types lists every known notification type. Dispatch tables are validated
// against this list so a new variant cannot be silently ignored.
func Types() []NotificationType {
	return []NotificationType{
		NotificationTypeRideRequest,
		NotificationTypeRideAccepted,
		NotificationTypeRideArrived,
		NotificationTypeRideStarted,
		NotificationTypeRideCompleted,
		NotificationTypePayment,
		NotificationTypePaymentFailed,
		NotificationTypePromo,
		NotificationTypeChat,
		NotificationTypeGeneral,
	}
}

// Importance levels for delivery channels
type Importance string

const (
	ImportanceLow     Importance = "low"
	ImportanceDefault Importance = "default"
	ImportanceHigh    Importance = "high"
	ImportanceMax     Importance = "max"
)

// Priority of a scheduled notification
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Channel is a named delivery configuration referenced by notifications at
// schedule time. On platforms without a channel concept it is a no-op.
type Channel struct {
	ID               string     `json:"id"`
	Importance       Importance `json:"importance"`
	VibrationPattern []int64    `json:"vibration_pattern,omitempty"`
	Sound            string     `json:"sound,omitempty"`
	Badge            bool       `json:"badge"`
}

// RidePayload carries the ride lifecycle fields
type RidePayload struct {
	RideID     string  `json:"ride_id"`
	DriverID   string  `json:"driver_id,omitempty"`
	DriverName string  `json:"driver_name,omitempty"`
	Vehicle    string  `json:"vehicle,omitempty"`
	ETAMinutes int     `json:"eta_minutes,omitempty"`
	Fare       float64 `json:"fare,omitempty"`
}

// PaymentPayload carries payment result fields
type PaymentPayload struct {
	RideID   string  `json:"ride_id,omitempty"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency,omitempty"`
	Method   string  `json:"method,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

// PromoPayload carries promotional offer fields
type PromoPayload struct {
	PromoCode string     `json:"promo_code"`
	Discount  string     `json:"discount,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ChatPayload carries driver/rider chat message fields
type ChatPayload struct {
	RideID     string `json:"ride_id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Preview    string `json:"preview,omitempty"`
}

// NotificationData is the discriminated payload attached to every
// notification. Type selects which variant pointer is populated; the common
// title/message fields are always present.
type NotificationData struct {
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	ChannelID string           `json:"channel_id,omitempty"`

	Ride    *RidePayload    `json:"ride,omitempty"`
	Payment *PaymentPayload `json:"payment,omitempty"`
	Promo   *PromoPayload   `json:"promo,omitempty"`
	Chat    *ChatPayload    `json:"chat,omitempty"`
}

// Trigger describes when a local notification fires. A nil *Trigger means
// fire immediately; Seconds is a relative delay.
type Trigger struct {
	Seconds int64 `json:"seconds"`
}

// After builds a delayed trigger
func After(seconds int64) *Trigger {
	return &Trigger{Seconds: seconds}
}

// ScheduledNotification is a local notification waiting in the platform
// queue. ID is assigned by the platform on scheduling.
type ScheduledNotification struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Payload   NotificationData `json:"payload"`
	ChannelID string           `json:"channel_id,omitempty"`
	Priority  Priority         `json:"priority"`
	Trigger   *Trigger         `json:"trigger,omitempty"`
}

// EventKind distinguishes a delivered notification from one the user acted on
type EventKind string

const (
	EventReceived  EventKind = "received"
	EventResponded EventKind = "responded"
)

// NotificationEvent is produced by the platform notification runtime and
// consumed exactly once by the dispatcher.
type NotificationEvent struct {
	Kind       EventKind        `json:"kind"`
	Payload    NotificationData `json:"payload"`
	ReceivedAt time.Time        `json:"received_at"`
}

// Notification is the server-side delivery record kept per recipient
type Notification struct {
	ID        uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID         `json:"user_id" gorm:"not null;index"`
	Type      NotificationType  `json:"type" gorm:"size:30;not null"`
	Title     string            `json:"title" gorm:"size:255;not null"`
	Body      string            `json:"body" gorm:"not null"`
	Data      map[string]string `json:"data,omitempty" gorm:"serializer:json"`
	Status    string            `json:"status" gorm:"size:20;default:'sent'"`
	CreatedAt time.Time         `json:"created_at"`
}

// Notification delivery statuses
const (
	NotificationStatusSent    = "sent"
	NotificationStatusFailed  = "failed"
	NotificationStatusSkipped = "skipped"
)
