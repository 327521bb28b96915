package repository

import (
	"github.com/google/uuid"
	"github.com/JSC875/ride-notify/internal/model"
	"gorm.io/gorm"
)

// NotificationRepository keeps the per-user delivery history
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create records one delivery attempt
func (r *NotificationRepository) Create(n *model.Notification) error {
	return r.db.Create(n).Error
}

// ListByUser returns a user's notifications, newest first, with cursor
// pagination (before = notification ID from a previous page).
func (r *NotificationRepository) ListByUser(userID uuid.UUID, before *uuid.UUID, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := r.db.Where("user_id = ?", userID)
	if before != nil {
		var cursor model.Notification
		if err := r.db.Select("created_at").Where("id = ?", *before).First(&cursor).Error; err == nil {
			query = query.Where("created_at < ?", cursor.CreatedAt)
		}
	}

	var notifications []model.Notification
	err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error
	return notifications, err
}
