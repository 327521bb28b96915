package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/JSC875/ride-notify/internal/model"
)

// EffectFunc is invoked by Set after the new record is persisted and before
// Set returns, so callers always observe effects applied before they see the
// new value.
type EffectFunc func(ctx context.Context, prev, next model.NotificationPreferences)

// PreferenceStore is the single source of truth for "is push enabled". The
// record is read-modify-written whole under a mutex, which closes the
// lost-update race between concurrent toggles.
type PreferenceStore struct {
	store   Store
	mu      sync.Mutex
	now     func() time.Time
	current *model.NotificationPreferences
	effects EffectFunc
}

func NewPreferenceStore(store Store) *PreferenceStore {
	return &PreferenceStore{store: store, now: time.Now}
}

// SetEffects installs the side-effect hook. The manager wires this during
// assembly; it must be set before the first Set call.
func (p *PreferenceStore) SetEffects(fn EffectFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.effects = fn
}

// Get returns the persisted record merged over defaults. It never fails: a
// missing or corrupt record yields the documented defaults.
func (p *PreferenceStore) Get(ctx context.Context) model.NotificationPreferences {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load(ctx)
}

// load assumes p.mu is held.
func (p *PreferenceStore) load(ctx context.Context) model.NotificationPreferences {
	if p.current != nil {
		return *p.current
	}

	prefs := model.DefaultPreferences()
	data, err := p.store.Get(ctx, prefsKey)
	switch {
	case err == ErrNotFound:
		// first read, defaults apply
	case err != nil:
		log.Printf("⚠️ Failed to read preferences, using defaults: %v", err)
	default:
		// Unmarshalling into the defaults value fills missing keys from the
		// defaults; a decode error leaves the defaults intact.
		if err := json.Unmarshal(data, &prefs); err != nil {
			log.Printf("⚠️ Corrupt preference record, using defaults: %v", err)
			prefs = model.DefaultPreferences()
		}
	}

	p.current = &prefs
	return prefs
}

// Set merges the patch over the current record, stamps LastUpdated, persists
// the whole document and applies side effects before returning. A storage
// failure is soft: the in-memory value is still updated so behavior this
// session stays correct, and the next Set retries the write.
func (p *PreferenceStore) Set(ctx context.Context, patch model.PreferencePatch) (model.NotificationPreferences, error) {
	p.mu.Lock()
	prev := p.load(ctx)

	next := patch.Apply(prev)
	now := p.now()
	if !now.After(prev.LastUpdated) {
		// LastUpdated is monotonically non-decreasing even under clock skew
		now = prev.LastUpdated.Add(time.Nanosecond)
	}
	next.LastUpdated = now
	p.current = &next

	var persistErr error
	data, err := json.Marshal(next)
	if err == nil {
		err = p.store.Set(ctx, prefsKey, data)
	}
	if err != nil {
		persistErr = fmt.Errorf("%w: %v", ErrPreferencePersist, err)
		log.Printf("⚠️ %v (in-memory value updated, retrying on next set)", persistErr)
	}

	effects := p.effects
	p.mu.Unlock()

	if effects != nil {
		effects(ctx, prev, next)
	}
	return next, persistErr
}

// AreEnabled is a convenience read of the push toggle
func (p *PreferenceStore) AreEnabled(ctx context.Context) bool {
	return p.Get(ctx).PushEnabled
}
