package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JSC875/ride-notify/internal/model"
)

func boolPtr(b bool) *bool { return &b }

func TestPreferences_DefaultsWhenMissing(t *testing.T) {
	prefs := NewPreferenceStore(NewMemoryStore())

	got := prefs.Get(context.Background())

	assert.True(t, got.PushEnabled)
	assert.True(t, got.LocationServices)
	assert.False(t, got.AutoPayment)
	assert.False(t, got.ShareData)
}

func TestPreferences_DefaultsWhenCorrupt(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), prefsKey, []byte("{not json")))

	prefs := NewPreferenceStore(store)
	got := prefs.Get(context.Background())

	assert.Equal(t, model.DefaultPreferences().PushEnabled, got.PushEnabled)
	assert.Equal(t, model.DefaultPreferences().AutoPayment, got.AutoPayment)
}

func TestPreferences_PartialRecordMergedOverDefaults(t *testing.T) {
	store := NewMemoryStore()
	// A record written by an older build that only knew about one key
	require.NoError(t, store.Set(context.Background(), prefsKey, []byte(`{"push_enabled":false}`)))

	prefs := NewPreferenceStore(store)
	got := prefs.Get(context.Background())

	assert.False(t, got.PushEnabled)
	assert.True(t, got.LocationServices, "missing keys fill from defaults")
}

func TestPreferences_SetAppliesPatchAndPersists(t *testing.T) {
	store := NewMemoryStore()
	prefs := NewPreferenceStore(store)
	ctx := context.Background()

	got, err := prefs.Set(ctx, model.PreferencePatch{AutoPayment: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, got.AutoPayment)
	assert.True(t, got.PushEnabled, "untouched fields keep their value")

	// A fresh store instance reads the persisted record back
	reread := NewPreferenceStore(store).Get(ctx)
	assert.True(t, reread.AutoPayment)
}

func TestPreferences_LastUpdatedMonotonicUnderClockSkew(t *testing.T) {
	prefs := NewPreferenceStore(NewMemoryStore())
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	prefs.now = func() time.Time { return base }

	first, err := prefs.Set(ctx, model.PreferencePatch{ShareData: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, base, first.LastUpdated)

	// Clock jumps backwards between writes
	prefs.now = func() time.Time { return base.Add(-time.Hour) }
	second, err := prefs.Set(ctx, model.PreferencePatch{ShareData: boolPtr(false)})
	require.NoError(t, err)

	assert.True(t, second.LastUpdated.After(first.LastUpdated),
		"LastUpdated must never move backwards")
}

func TestPreferences_PersistFailureStillApplies(t *testing.T) {
	store := NewMemoryStore()
	store.FailWrites = true
	prefs := NewPreferenceStore(store)
	ctx := context.Background()

	got, err := prefs.Set(ctx, model.PreferencePatch{PushEnabled: boolPtr(false)})
	require.ErrorIs(t, err, ErrPreferencePersist)
	assert.False(t, got.PushEnabled, "returned record reflects the patch")
	assert.False(t, prefs.Get(ctx).PushEnabled, "in-memory value updated despite persist failure")
}

func TestPreferences_EffectsRunBeforeSetReturns(t *testing.T) {
	prefs := NewPreferenceStore(NewMemoryStore())
	ctx := context.Background()

	var observed []bool
	prefs.SetEffects(func(_ context.Context, prev, next model.NotificationPreferences) {
		observed = append(observed, next.PushEnabled)
	})

	_, err := prefs.Set(ctx, model.PreferencePatch{PushEnabled: boolPtr(false)})
	require.NoError(t, err)
	require.Len(t, observed, 1, "effect ran exactly once, before Set returned")
	assert.False(t, observed[0])

	// No-op patches still run effects; the hook decides what changed
	_, err = prefs.Set(ctx, model.PreferencePatch{})
	require.NoError(t, err)
	assert.Len(t, observed, 2)
}

func TestPreferences_ConcurrentSetsSerialize(t *testing.T) {
	prefs := NewPreferenceStore(NewMemoryStore())
	ctx := context.Background()

	const writers = 32
	var wg sync.WaitGroup
	stamps := make([]time.Time, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := prefs.Set(ctx, model.PreferencePatch{AutoPayment: boolPtr(i%2 == 0)})
			assert.NoError(t, err)
			stamps[i] = got.LastUpdated
		}(i)
	}
	wg.Wait()

	// Every write produced a distinct LastUpdated: whole-record writes
	// serialized, no stamp was observed twice.
	seen := make(map[time.Time]bool, writers)
	for _, s := range stamps {
		assert.False(t, seen[s], "duplicate LastUpdated %v", s)
		seen[s] = true
	}
}
