package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/JSC875/ride-notify/internal/model"
)

// Config assembles the lifecycle manager
type Config struct {
	Token           TokenConfig
	RegistrationURL string

	// RefreshPeriod between background token refreshes; zero means the
	// 24h default.
	RefreshPeriod time.Duration

	// Channels declared at startup; nil means DefaultChannels()
	Channels []model.Channel

	// OnPermissionDenied shows the one-time settings explanation
	OnPermissionDenied func()
}

// Manager owns the notification lifecycle: permission, token, channels,
// scheduling and event dispatch, driven by the stored preference record.
// All collaborators are explicit; there is no hidden global state.
type Manager struct {
	platform Platform
	cfg      Config

	Prefs      *PreferenceStore
	Gate       *PermissionGate
	Channels   *ChannelRegistry
	Tokens     *TokenManager
	Scheduler  *Scheduler
	Dispatcher *Dispatcher

	mu       sync.Mutex
	attached bool
}

// NewManager wires the components together. Preference side effects are
// installed here: enabling push re-enters the startup sequence, disabling
// tears delivery down while keeping the registration record for a later
// re-enable.
func NewManager(platform Platform, store Store, cfg Config, received, responded Handlers) *Manager {
	prefs := NewPreferenceStore(store)
	gate := NewPermissionGate(platform, cfg.OnPermissionDenied)
	channels := NewChannelRegistry(platform)
	client := NewRegistrationClient(cfg.RegistrationURL)
	tokens := NewTokenManager(platform, store, prefs, gate, client, cfg.Token)
	scheduler := NewScheduler(platform, prefs, channels)
	dispatcher := NewDispatcher(received, responded)

	if cfg.Channels == nil {
		cfg.Channels = DefaultChannels()
	}

	m := &Manager{
		platform:   platform,
		cfg:        cfg,
		Prefs:      prefs,
		Gate:       gate,
		Channels:   channels,
		Tokens:     tokens,
		Scheduler:  scheduler,
		Dispatcher: dispatcher,
	}

	prefs.SetEffects(m.applyPreferenceChange)
	return m
}

// Start runs the startup sequence: load preferences, install the display
// behavior they imply, and bring delivery up if push is enabled.
func (m *Manager) Start(ctx context.Context) error {
	prefs := m.Prefs.Get(ctx)
	m.platform.SetForegroundDisplay(prefs.PushEnabled)

	if !prefs.PushEnabled {
		log.Printf("Push disabled by preference, notification delivery idle")
		return nil
	}
	return m.enable(ctx)
}

// Stop tears the manager down on app shutdown: refresh timer cancelled,
// event subscriptions closed. The registration record is left in place.
func (m *Manager) Stop() {
	m.Tokens.Stop()
	m.Dispatcher.Detach()
	m.mu.Lock()
	m.attached = false
	m.mu.Unlock()
}

// enable is the shared path for initial startup and a push re-enable
func (m *Manager) enable(ctx context.Context) error {
	if err := m.Channels.Configure(ctx, m.cfg.Channels); err != nil {
		return err
	}

	granted, err := m.Gate.Request(ctx)
	if err != nil {
		return err
	}
	if granted {
		if _, err := m.Tokens.AcquireAndRegister(ctx); err != nil {
			// configuration errors are fatal for acquisition but must not
			// crash startup; soft failures already retried by refresh
			log.Printf("⚠️ Token acquisition: %v", err)
		}
		m.Tokens.StartRefresh(m.cfg.RefreshPeriod)
	}

	m.mu.Lock()
	attached := m.attached
	m.attached = true
	m.mu.Unlock()
	if !attached {
		m.Dispatcher.Attach(m.platform)
	}
	return nil
}

// applyPreferenceChange runs inside PreferenceStore.Set, before the caller
// observes the new record.
func (m *Manager) applyPreferenceChange(ctx context.Context, prev, next model.NotificationPreferences) {
	if prev.PushEnabled == next.PushEnabled {
		return
	}

	if next.PushEnabled {
		m.platform.SetForegroundDisplay(true)
		if err := m.enable(ctx); err != nil {
			log.Printf("⚠️ Failed to re-enable notifications: %v", err)
		}
		return
	}

	// Disable: suppress display, drain the queue, stop refreshing. The
	// registration record is kept so a future re-enable only re-POSTs.
	m.platform.SetForegroundDisplay(false)
	if err := m.Scheduler.CancelAll(ctx); err != nil {
		log.Printf("⚠️ Failed to cancel scheduled notifications: %v", err)
	}
	m.Tokens.Stop()
}
