package service

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/JSC875/ride-notify/internal/model"
	"github.com/JSC875/ride-notify/internal/repository"
)

// RegistryService handles device token registration business logic
type RegistryService struct {
	devices *repository.DeviceRepository
	prefs   *repository.PreferenceRepository
}

func NewRegistryService(devices *repository.DeviceRepository, prefs *repository.PreferenceRepository) *RegistryService {
	return &RegistryService{devices: devices, prefs: prefs}
}

// RegisterDevice upserts a device's push token. Re-registering an existing
// device supersedes its token value; the row is never deleted. A known user
// gets a default preference row on first contact so later sends always find
// a mirror to consult.
func (s *RegistryService) RegisterDevice(req model.RegisterDeviceRequest) (*model.DeviceToken, error) {
	token := &model.DeviceToken{
		ID:       uuid.New(),
		Value:    req.Value,
		Platform: req.Platform,
		DeviceID: req.DeviceID,
		Active:   true,
	}

	if req.UserID != "" {
		uid, err := uuid.Parse(req.UserID)
		if err != nil {
			return nil, errors.New("invalid user id")
		}
		token.UserID = &uid
	}

	if req.IssuedAt != "" {
		if issued, err := time.Parse(time.RFC3339, req.IssuedAt); err == nil {
			token.IssuedAt = issued
		}
	}

	if err := s.devices.Upsert(token); err != nil {
		return nil, errors.New("failed to register device")
	}
	devicesRegisteredTotal.Inc()

	if token.UserID != nil {
		if _, err := s.prefs.Get(*token.UserID); err != nil {
			log.Printf("⚠️ Failed to ensure preference row for %s: %v", token.UserID, err)
		}
	}

	return token, nil
}

// UnregisterDevice deactivates every row holding the token value.
// Idempotent: unknown tokens are not an error.
func (s *RegistryService) UnregisterDevice(tokenValue string) error {
	return s.devices.DeactivateByValue(tokenValue)
}
