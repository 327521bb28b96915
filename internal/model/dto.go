package model

import (
	"time"

	"github.com/google/uuid"
)

// ========== Registration DTOs ==========

type RegisterDeviceRequest struct {
	Value    string `json:"value" binding:"required"`
	Platform string `json:"platform" binding:"required,oneof=ios android web"`
	DeviceID string `json:"deviceId" binding:"required"`
	UserID   string `json:"userId"`
	IssuedAt string `json:"issuedAt"`
}

type UnregisterDeviceRequest struct {
	Token string `json:"token" binding:"required"`
}

// ========== Send DTOs ==========

type SendNotificationRequest struct {
	UserIDs []uuid.UUID       `json:"userIds" binding:"required,min=1"`
	Type    NotificationType  `json:"type"`
	Title   string            `json:"title" binding:"required"`
	Body    string            `json:"body" binding:"required"`
	Data    map[string]string `json:"data,omitempty"`
}

// SendReport summarizes one fan-out: how many device deliveries were
// attempted, how many push tickets failed, and which users were skipped
// because their preference mirror has push disabled.
type SendReport struct {
	Requested int         `json:"requested"`
	Delivered int         `json:"delivered"`
	Failed    int         `json:"failed"`
	Skipped   []uuid.UUID `json:"skipped,omitempty"`
}

// ========== Preference DTOs ==========

type UpdatePreferencesRequest struct {
	PushEnabled      *bool `json:"push_enabled"`
	LocationServices *bool `json:"location_services"`
	AutoPayment      *bool `json:"auto_payment"`
	ShareData        *bool `json:"share_data"`
}

type HistoryRequest struct {
	Before string `form:"before"` // cursor for pagination (notification ID)
	Limit  int    `form:"limit,default=50"`
}

// ========== WebSocket Event DTOs ==========

// WSEvent is the envelope delivered to foreground clients over the socket
type WSEvent struct {
	Type       string           `json:"type"`
	Payload    NotificationData `json:"payload"`
	ReceivedAt time.Time        `json:"received_at"`
}

// WebSocket event types
const (
	WSEventNotification = "notification"
)

// ========== Common ==========

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
