package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/JSC875/ride-notify/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferenceRepository handles the server-side preference mirror
type PreferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns a user's preference row, creating the default row on first
// read so every user always has one.
func (r *PreferenceRepository) Get(userID uuid.UUID) (*model.UserPreferences, error) {
	var prefs model.UserPreferences
	err := r.db.Where("user_id = ?", userID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		defaults := model.DefaultPreferences()
		prefs = model.UserPreferences{
			UserID:           userID,
			PushEnabled:      defaults.PushEnabled,
			LocationServices: defaults.LocationServices,
			AutoPayment:      defaults.AutoPayment,
			ShareData:        defaults.ShareData,
			LastUpdated:      time.Now(),
		}
		if err := r.db.Create(&prefs).Error; err != nil {
			return nil, err
		}
		return &prefs, nil
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

// Upsert rewrites a user's whole preference row. LastUpdated only moves
// forward: a stale write (older LastUpdated than the stored row) is dropped.
func (r *PreferenceRepository) Upsert(prefs *model.UserPreferences) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"push_enabled":      prefs.PushEnabled,
			"location_services": prefs.LocationServices,
			"auto_payment":      prefs.AutoPayment,
			"share_data":        prefs.ShareData,
			"last_updated":      prefs.LastUpdated,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Lte{Column: clause.Column{Table: "user_preferences", Name: "last_updated"}, Value: prefs.LastUpdated},
		}},
	}).Create(prefs).Error
}

// PushEnabledSet returns the subset of the given users whose mirror has push
// enabled. Users without a row default to enabled.
func (r *PreferenceRepository) PushEnabledSet(userIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	var rows []model.UserPreferences
	if err := r.db.Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, err
	}

	enabled := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		enabled[id] = true // default when no row exists
	}
	for _, row := range rows {
		enabled[row.UserID] = row.PushEnabled
	}
	return enabled, nil
}
