package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JSC875/ride-notify/internal/model"
)

// DefaultRefreshPeriod is how often the token is re-acquired and
// re-registered in the background.
const DefaultRefreshPeriod = 24 * time.Hour

// TokenConfig identifies this installation to the push subsystem
type TokenConfig struct {
	// ProjectID scopes token issuance. Empty means the build is
	// misconfigured: acquisition fails with ErrConfiguration and is not
	// retried automatically.
	ProjectID string

	// DeviceID is the stable identifier of this installed app instance
	DeviceID string

	// Platform is one of model.PlatformIOS/Android/Web
	Platform string
}

// TokenManager obtains the device's push token, persists it locally,
// registers it with the backend and refreshes it on a fixed period. One
// token per installation; a new value supersedes the old, nothing is deleted.
type TokenManager struct {
	platform Platform
	store    Store
	prefs    *PreferenceStore
	gate     *PermissionGate
	client   *RegistrationClient
	cfg      TokenConfig
	now      func() time.Time

	mu         sync.Mutex
	cached     *model.DeviceToken
	regPending bool
	cfgWarned  bool

	refreshCancel context.CancelFunc
}

func NewTokenManager(
	platform Platform,
	store Store,
	prefs *PreferenceStore,
	gate *PermissionGate,
	client *RegistrationClient,
	cfg TokenConfig,
) *TokenManager {
	return &TokenManager{
		platform: platform,
		store:    store,
		prefs:    prefs,
		gate:     gate,
		client:   client,
		cfg:      cfg,
		now:      time.Now,
	}
}

// AcquireAndRegister fetches a token from the platform, persists it and
// registers it with the backend. Requires a granted permission; without it
// nothing happens. Registration failure is soft: the token is still returned
// and the POST is retried on the next refresh tick.
func (t *TokenManager) AcquireAndRegister(ctx context.Context) (*model.DeviceToken, error) {
	if t.gate.State() != PermissionGranted {
		return nil, ErrPermissionDenied
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cfg.ProjectID == "" {
		if !t.cfgWarned {
			t.cfgWarned = true
			log.Printf("❌ Push project id not configured; token acquisition disabled")
		}
		return nil, ErrConfiguration
	}

	value, err := t.platform.FetchToken(ctx, t.cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenFetch, err)
	}

	token := t.loadLocked(ctx)
	if token == nil || token.Value != value {
		issued := t.now()
		fresh := model.DeviceToken{
			ID:       uuid.New(),
			Value:    value,
			Platform: t.cfg.Platform,
			DeviceID: t.cfg.DeviceID,
			IssuedAt: issued,
			Active:   true,
		}
		if token != nil {
			// superseding: the authenticated identity carries over
			fresh.UserID = token.UserID
		}
		token = &fresh
		t.persistLocked(ctx, token)
	}
	t.cached = token

	t.registerLocked(ctx, token)
	return token, nil
}

// UpdateUserID attaches an authenticated session to the cached token,
// re-persists and re-registers it (soft-failure semantics).
func (t *TokenManager) UpdateUserID(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	token := t.loadLocked(ctx)
	if token == nil {
		return fmt.Errorf("no device token to attach user to")
	}
	token.UserID = &uid
	t.cached = token
	t.persistLocked(ctx, token)
	t.registerLocked(ctx, token)
	return nil
}

// Unregister tells the backend to stop addressing this token. Used on
// logout; the local record stays so a re-login can re-register.
func (t *TokenManager) Unregister(ctx context.Context) error {
	t.mu.Lock()
	token := t.loadLocked(ctx)
	t.mu.Unlock()

	if token == nil {
		return nil
	}
	if err := t.client.Unregister(ctx, token.Value); err != nil {
		log.Printf("⚠️ Unregister failed: %v", err)
		return err
	}
	return nil
}

// Current returns the cached token record, if any
func (t *TokenManager) Current(ctx context.Context) *model.DeviceToken {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadLocked(ctx)
}

// StartRefresh runs the background refresh cycle. The preference check
// happens at fire time, not here: a user can disable push between two ticks
// and the cycle must skip without re-registering.
func (t *TokenManager) StartRefresh(period time.Duration) {
	if period <= 0 {
		period = DefaultRefreshPeriod
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.refreshCancel != nil {
		return // already running
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.refreshCancel = cancel

	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.refreshTick(ctx)
			}
		}
	}()
}

// Stop cancels the refresh cycle; safe to call when never started
func (t *TokenManager) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.refreshCancel != nil {
		t.refreshCancel()
		t.refreshCancel = nil
	}
}

// refreshTick is one refresh cycle. When only the registration POST failed
// last time, the cached token is re-POSTed without touching the platform.
func (t *TokenManager) refreshTick(ctx context.Context) {
	if !t.prefs.AreEnabled(ctx) {
		log.Printf("Push disabled, skipping token refresh")
		return
	}

	t.mu.Lock()
	pending := t.regPending
	cached := t.cached
	t.mu.Unlock()

	if pending && cached != nil {
		t.mu.Lock()
		t.registerLocked(ctx, cached)
		t.mu.Unlock()
		return
	}

	if _, err := t.AcquireAndRegister(ctx); err != nil {
		log.Printf("⚠️ Token refresh failed: %v", err)
	}
}

// loadLocked returns the cached record, falling back to local storage.
// Assumes t.mu is held.
func (t *TokenManager) loadLocked(ctx context.Context) *model.DeviceToken {
	if t.cached != nil {
		return t.cached
	}
	data, err := t.store.Get(ctx, tokenKey)
	if err != nil {
		if err != ErrNotFound {
			log.Printf("⚠️ Failed to read device token record: %v", err)
		}
		return nil
	}
	var token model.DeviceToken
	if err := json.Unmarshal(data, &token); err != nil {
		log.Printf("⚠️ Corrupt device token record: %v", err)
		return nil
	}
	t.cached = &token
	return t.cached
}

// persistLocked overwrites the local token record. Storage failure is soft;
// the in-memory token stays authoritative for this session.
func (t *TokenManager) persistLocked(ctx context.Context, token *model.DeviceToken) {
	data, err := json.Marshal(token)
	if err == nil {
		err = t.store.Set(ctx, tokenKey, data)
	}
	if err != nil {
		log.Printf("⚠️ Failed to persist device token: %v", err)
	}
}

// registerLocked POSTs the token to the backend, tracking whether a retry is
// owed. Assumes t.mu is held.
func (t *TokenManager) registerLocked(ctx context.Context, token *model.DeviceToken) {
	if err := t.client.Register(ctx, *token); err != nil {
		t.regPending = true
		log.Printf("⚠️ %v (will retry on next refresh)", err)
		return
	}
	t.regPending = false
}
