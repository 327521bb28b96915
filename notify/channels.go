package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/JSC875/ride-notify/internal/model"
)

// Well-known channel ids referenced by scheduled notifications
const (
	ChannelRideUpdates = "ride-updates"
	ChannelChat        = "chat"
	ChannelPromotions  = "promotions"
)

// DefaultChannel is the max-importance channel configured on permission grant
func DefaultChannel() model.Channel {
	return model.Channel{
		ID:               ChannelRideUpdates,
		Importance:       model.ImportanceMax,
		VibrationPattern: []int64{0, 250, 250, 250},
		Sound:            "default",
		Badge:            true,
	}
}

// DefaultChannels is the full channel set declared at startup
func DefaultChannels() []model.Channel {
	return []model.Channel{
		DefaultChannel(),
		{ID: ChannelChat, Importance: model.ImportanceHigh, Sound: "default", Badge: true},
		{ID: ChannelPromotions, Importance: model.ImportanceDefault, Badge: false},
	}
}

// ChannelRegistry declares named delivery channels with the platform and
// remembers which ids exist so the scheduler can fail fast on a reference to
// an unregistered channel.
type ChannelRegistry struct {
	platform Platform
	mu       sync.RWMutex
	channels map[string]model.Channel
}

func NewChannelRegistry(platform Platform) *ChannelRegistry {
	return &ChannelRegistry{
		platform: platform,
		channels: make(map[string]model.Channel),
	}
}

// Configure upserts the given channels, keyed by id. Re-declaring an
// existing id with different attributes updates it (last write wins);
// re-running at startup is a no-op.
func (r *ChannelRegistry) Configure(ctx context.Context, channels []model.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ch := range channels {
		if ch.ID == "" {
			return fmt.Errorf("channel with empty id")
		}
		if err := r.platform.EnsureChannel(ctx, ch); err != nil {
			return fmt.Errorf("configure channel %q: %w", ch.ID, err)
		}
		r.channels[ch.ID] = ch
	}
	return nil
}

// Has reports whether a channel id has been registered
func (r *ChannelRegistry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.channels[id]
	return ok
}

// Get returns a registered channel by id
func (r *ChannelRegistry) Get(id string) (model.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[id]
	return ch, ok
}
