package notify

import (
	"context"
	"fmt"

	"github.com/JSC875/ride-notify/internal/model"
)

// Scheduler places local notifications on the platform queue. Delivery is
// preference-gated: while push is disabled nothing reaches the platform.
type Scheduler struct {
	platform Platform
	prefs    *PreferenceStore
	channels *ChannelRegistry
}

func NewScheduler(platform Platform, prefs *PreferenceStore, channels *ChannelRegistry) *Scheduler {
	return &Scheduler{platform: platform, prefs: prefs, channels: channels}
}

// Schedule enqueues a notification and returns the platform-assigned id. A
// disabled push preference returns an empty id with no platform call and no
// error: disabling is not an error state. A payload referencing an
// unregistered channel is a programming error and fails fast.
func (s *Scheduler) Schedule(
	ctx context.Context,
	title, body string,
	payload model.NotificationData,
	trigger *model.Trigger,
	priority model.Priority,
) (string, error) {
	if !s.prefs.AreEnabled(ctx) {
		return "", nil
	}

	if payload.ChannelID != "" && !s.channels.Has(payload.ChannelID) {
		return "", fmt.Errorf("%w: unknown channel %q", ErrScheduleFailed, payload.ChannelID)
	}

	if priority == "" {
		priority = model.PriorityNormal
	}

	id, err := s.platform.Schedule(ctx, model.ScheduledNotification{
		Title:     title,
		Body:      body,
		Payload:   payload,
		ChannelID: payload.ChannelID,
		Priority:  priority,
		Trigger:   trigger,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrScheduleFailed, err)
	}
	return id, nil
}

// Cancel removes one scheduled notification; unknown or already-fired ids
// are not an error.
func (s *Scheduler) Cancel(ctx context.Context, id string) error {
	return s.platform.Cancel(ctx, id)
}

// CancelAll drains the platform queue
func (s *Scheduler) CancelAll(ctx context.Context) error {
	return s.platform.CancelAll(ctx)
}

// ListScheduled snapshots the platform queue, for diagnostics
func (s *Scheduler) ListScheduled(ctx context.Context) ([]model.ScheduledNotification, error) {
	return s.platform.ListScheduled(ctx)
}
