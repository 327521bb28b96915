package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JSC875/ride-notify/internal/model"
)

// registrationRecorder is an httptest backend for the registration endpoints
type registrationRecorder struct {
	mu          sync.Mutex
	registers   []model.DeviceToken
	unregisters []string
	status      int
}

func newRegistrationRecorder() (*registrationRecorder, *httptest.Server) {
	rec := &registrationRecorder{status: http.StatusOK}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		switch r.URL.Path {
		case "/api/notifications/register":
			var token model.DeviceToken
			_ = json.NewDecoder(r.Body).Decode(&token)
			rec.registers = append(rec.registers, token)
		case "/api/notifications/unregister":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			rec.unregisters = append(rec.unregisters, body["token"])
		}
		w.WriteHeader(rec.status)
	}))
	return rec, srv
}

func (r *registrationRecorder) registerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.registers)
}

func (r *registrationRecorder) registerAt(i int) model.DeviceToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registers[i]
}

func (r *registrationRecorder) setStatus(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = code
}

func newTestTokenManager(t *testing.T, platform *fakePlatform, baseURL string) (*TokenManager, *PermissionGate) {
	t.Helper()
	store := NewMemoryStore()
	prefs := NewPreferenceStore(store)
	gate := NewPermissionGate(platform, nil)
	client := NewRegistrationClient(baseURL)
	mgr := NewTokenManager(platform, store, prefs, gate, client, TokenConfig{
		ProjectID: "proj-ride",
		DeviceID:  "device-abc",
		Platform:  model.PlatformAndroid,
	})
	return mgr, gate
}

func grantPermission(t *testing.T, platform *fakePlatform, gate *PermissionGate) {
	t.Helper()
	platform.status = PermissionGranted
	granted, err := gate.Request(context.Background())
	require.NoError(t, err)
	require.True(t, granted)
}

func TestToken_RequiresGrantedPermission(t *testing.T) {
	rec, srv := newRegistrationRecorder()
	defer srv.Close()

	platform := newFakePlatform()
	mgr, _ := newTestTokenManager(t, platform, srv.URL)

	_, err := mgr.AcquireAndRegister(context.Background())
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 0, platform.fetchCalls)
	assert.Equal(t, 0, rec.registerCount(), "no network traffic without permission")
}

func TestToken_MissingProjectIDIsConfigurationError(t *testing.T) {
	rec, srv := newRegistrationRecorder()
	defer srv.Close()

	platform := newFakePlatform()
	store := NewMemoryStore()
	prefs := NewPreferenceStore(store)
	gate := NewPermissionGate(platform, nil)
	mgr := NewTokenManager(platform, store, prefs, gate, NewRegistrationClient(srv.URL), TokenConfig{
		DeviceID: "device-abc",
		Platform: model.PlatformIOS,
	})
	grantPermission(t, platform, gate)

	_, err := mgr.AcquireAndRegister(context.Background())
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, 0, rec.registerCount())
}

func TestToken_AcquirePersistsAndRegisters(t *testing.T) {
	rec, srv := newRegistrationRecorder()
	defer srv.Close()

	platform := newFakePlatform()
	mgr, gate := newTestTokenManager(t, platform, srv.URL)
	grantPermission(t, platform, gate)
	ctx := context.Background()

	token, err := mgr.AcquireAndRegister(ctx)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, platform.tokenValue, token.Value)
	assert.Equal(t, "device-abc", token.DeviceID)
	assert.True(t, token.Active)

	require.Equal(t, 1, rec.registerCount())
	assert.Equal(t, token.Value, rec.registerAt(0).Value)
	assert.Equal(t, token.Value, mgr.Current(ctx).Value)
}

func TestToken_SameValueKeepsRecord(t *testing.T) {
	_, srv := newRegistrationRecorder()
	defer srv.Close()

	platform := newFakePlatform()
	mgr, gate := newTestTokenManager(t, platform, srv.URL)
	grantPermission(t, platform, gate)
	ctx := context.Background()

	first, err := mgr.AcquireAndRegister(ctx)
	require.NoError(t, err)
	second, err := mgr.AcquireAndRegister(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "unchanged value keeps the same record")

	// A rotated platform token supersedes the record
	platform.tokenValue = "ExponentPushToken[test-0002]"
	third, err := mgr.AcquireAndRegister(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
	assert.Equal(t, "ExponentPushToken[test-0002]", third.Value)
}

func TestToken_RegistrationFailureIsSoftAndRetriedFromCache(t *testing.T) {
	rec, srv := newRegistrationRecorder()
	defer srv.Close()
	rec.setStatus(http.StatusInternalServerError)

	platform := newFakePlatform()
	mgr, gate := newTestTokenManager(t, platform, srv.URL)
	grantPermission(t, platform, gate)
	ctx := context.Background()

	token, err := mgr.AcquireAndRegister(ctx)
	require.NoError(t, err, "registration failure must not surface from acquisition")
	require.NotNil(t, token)
	require.Equal(t, 1, rec.registerCount())

	fetches := platform.fetchCalls
	rec.setStatus(http.StatusOK)

	// The next refresh re-POSTs the cached token without touching the platform
	mgr.refreshTick(ctx)
	assert.Equal(t, 2, rec.registerCount())
	assert.Equal(t, fetches, platform.fetchCalls, "cached token re-sent, no re-fetch")
	assert.Equal(t, token.Value, rec.registerAt(1).Value)

	// With the retry settled the following tick goes back to a full refresh
	mgr.refreshTick(ctx)
	assert.Greater(t, platform.fetchCalls, fetches)
}

func TestToken_RefreshSkipsWhileDisabled(t *testing.T) {
	rec, srv := newRegistrationRecorder()
	defer srv.Close()

	platform := newFakePlatform()
	store := NewMemoryStore()
	prefs := NewPreferenceStore(store)
	gate := NewPermissionGate(platform, nil)
	mgr := NewTokenManager(platform, store, prefs, gate, NewRegistrationClient(srv.URL), TokenConfig{
		ProjectID: "proj-ride",
		DeviceID:  "device-abc",
		Platform:  model.PlatformAndroid,
	})
	grantPermission(t, platform, gate)
	ctx := context.Background()

	_, err := prefs.Set(ctx, model.PreferencePatch{PushEnabled: boolPtr(false)})
	require.NoError(t, err)

	mgr.refreshTick(ctx)
	assert.Equal(t, 0, platform.fetchCalls)
	assert.Equal(t, 0, rec.registerCount())
}

func TestToken_UpdateUserIDReRegisters(t *testing.T) {
	rec, srv := newRegistrationRecorder()
	defer srv.Close()

	platform := newFakePlatform()
	mgr, gate := newTestTokenManager(t, platform, srv.URL)
	grantPermission(t, platform, gate)
	ctx := context.Background()

	_, err := mgr.AcquireAndRegister(ctx)
	require.NoError(t, err)

	require.Error(t, mgr.UpdateUserID(ctx, "not-a-uuid"))

	userID := "8f14e45f-ceea-467f-a0f9-b1a163c4b9e2"
	require.NoError(t, mgr.UpdateUserID(ctx, userID))

	require.Equal(t, 2, rec.registerCount())
	reg := rec.registerAt(1)
	require.NotNil(t, reg.UserID)
	assert.Equal(t, userID, reg.UserID.String())
}

func TestToken_UnregisterSendsValue(t *testing.T) {
	rec, srv := newRegistrationRecorder()
	defer srv.Close()

	platform := newFakePlatform()
	mgr, gate := newTestTokenManager(t, platform, srv.URL)
	grantPermission(t, platform, gate)
	ctx := context.Background()

	token, err := mgr.AcquireAndRegister(ctx)
	require.NoError(t, err)

	require.NoError(t, mgr.Unregister(ctx))
	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.unregisters, 1)
	assert.Equal(t, token.Value, rec.unregisters[0])

	// The local record survives so a later login can re-register
	assert.NotNil(t, mgr.Current(ctx))
}

func TestToken_StopIsSafeWithoutStart(t *testing.T) {
	platform := newFakePlatform()
	mgr, _ := newTestTokenManager(t, platform, "http://127.0.0.1:0")
	mgr.Stop()

	mgr.StartRefresh(time.Hour)
	mgr.StartRefresh(time.Hour) // second start is a no-op
	mgr.Stop()
	mgr.Stop()
}
