package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationPreferences is the user's notification/location/privacy record.
// It is persisted as a single document and always rewritten whole; partial
// merges happen in memory before the write.
type NotificationPreferences struct {
	PushEnabled      bool      `json:"push_enabled"`
	LocationServices bool      `json:"location_services"`
	AutoPayment      bool      `json:"auto_payment"`
	ShareData        bool      `json:"share_data"`
	LastUpdated      time.Time `json:"last_updated"`
}

// DefaultPreferences are used on first read and whenever the persisted
// record cannot be decoded.
func DefaultPreferences() NotificationPreferences {
	return NotificationPreferences{
		PushEnabled:      true,
		LocationServices: true,
		AutoPayment:      false,
		ShareData:        false,
	}
}

// PreferencePatch is a partial preference update; nil fields are left alone.
type PreferencePatch struct {
	PushEnabled      *bool `json:"push_enabled,omitempty"`
	LocationServices *bool `json:"location_services,omitempty"`
	AutoPayment      *bool `json:"auto_payment,omitempty"`
	ShareData        *bool `json:"share_data,omitempty"`
}

// Apply merges the patch over p and returns the result. LastUpdated is the
// caller's responsibility so clocks stay testable.
func (patch PreferencePatch) Apply(p NotificationPreferences) NotificationPreferences {
	if patch.PushEnabled != nil {
		p.PushEnabled = *patch.PushEnabled
	}
	if patch.LocationServices != nil {
		p.LocationServices = *patch.LocationServices
	}
	if patch.AutoPayment != nil {
		p.AutoPayment = *patch.AutoPayment
	}
	if patch.ShareData != nil {
		p.ShareData = *patch.ShareData
	}
	return p
}

// UserPreferences is the server-side mirror of a user's preference record,
// consulted before any push fan-out so a disabled user is never addressed.
type UserPreferences struct {
	UserID           uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	PushEnabled      bool      `json:"push_enabled" gorm:"default:true"`
	LocationServices bool      `json:"location_services" gorm:"default:true"`
	AutoPayment      bool      `json:"auto_payment" gorm:"default:false"`
	ShareData        bool      `json:"share_data" gorm:"default:false"`
	LastUpdated      time.Time `json:"last_updated"`
	CreatedAt        time.Time `json:"created_at"`
}
