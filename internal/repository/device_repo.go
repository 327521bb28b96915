package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/JSC875/ride-notify/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceRepository handles database operations for DeviceToken
type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Upsert registers a device token. One row per device_id: re-registering an
// existing device supersedes its token value and reactivates it.
func (r *DeviceRepository) Upsert(token *model.DeviceToken) error {
	if token.IssuedAt.IsZero() {
		token.IssuedAt = time.Now()
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "device_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      token.Value,
			"platform":   token.Platform,
			"user_id":    token.UserID,
			"issued_at":  token.IssuedAt,
			"active":     true,
			"updated_at": time.Now(),
		}),
	}).Create(token).Error
}

// FindActiveByUserIDs returns all active tokens addressing the given users
func (r *DeviceRepository) FindActiveByUserIDs(userIDs []uuid.UUID) ([]model.DeviceToken, error) {
	var tokens []model.DeviceToken
	err := r.db.
		Where("user_id IN ? AND active = ?", userIDs, true).
		Find(&tokens).Error
	return tokens, err
}

// DeactivateByValue marks every row holding this token value inactive.
// Idempotent: unknown values match zero rows and that is fine.
func (r *DeviceRepository) DeactivateByValue(value string) error {
	return r.db.Model(&model.DeviceToken{}).
		Where("value = ?", value).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_at": time.Now(),
		}).Error
}
