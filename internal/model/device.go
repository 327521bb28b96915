package model

import (
	"time"

	"github.com/google/uuid"
)

// Device platforms
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

// DeviceToken is the push-delivery identity of one installed app instance.
// One row per device; the token value is superseded on refresh, never
// deleted. UserID is attached once a session authenticates.
type DeviceToken struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Value     string     `json:"value" gorm:"not null;index"`
	Platform  string     `json:"platform" gorm:"size:20;default:'unknown'"` // android, ios, web
	DeviceID  string     `json:"device_id" gorm:"not null;uniqueIndex"`
	UserID    *uuid.UUID `json:"user_id,omitempty" gorm:"index"`
	IssuedAt  time.Time  `json:"issued_at"`
	Active    bool       `json:"active" gorm:"default:true"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsExpo reports whether the token value came from the Expo push service
// (the mobile builds) rather than raw FCM (the bare Android build).
func (t DeviceToken) IsExpo() bool {
	return len(t.Value) > 18 && t.Value[:18] == "ExponentPushToken["
}
