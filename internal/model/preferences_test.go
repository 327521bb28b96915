package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestDefaultPreferences(t *testing.T) {
	p := DefaultPreferences()
	assert.True(t, p.PushEnabled)
	assert.True(t, p.LocationServices)
	assert.False(t, p.AutoPayment)
	assert.False(t, p.ShareData)
}

func TestPreferencePatch_ApplyLeavesNilFieldsAlone(t *testing.T) {
	base := NotificationPreferences{
		PushEnabled:      true,
		LocationServices: true,
		AutoPayment:      false,
		ShareData:        false,
	}

	got := PreferencePatch{AutoPayment: boolPtr(true)}.Apply(base)
	assert.True(t, got.AutoPayment)
	assert.True(t, got.PushEnabled)
	assert.True(t, got.LocationServices)

	got = PreferencePatch{}.Apply(base)
	assert.Equal(t, base, got)
}

func TestPreferencePatch_ApplyAllFields(t *testing.T) {
	got := PreferencePatch{
		PushEnabled:      boolPtr(false),
		LocationServices: boolPtr(false),
		AutoPayment:      boolPtr(true),
		ShareData:        boolPtr(true),
	}.Apply(DefaultPreferences())

	assert.False(t, got.PushEnabled)
	assert.False(t, got.LocationServices)
	assert.True(t, got.AutoPayment)
	assert.True(t, got.ShareData)
}

func TestPreferences_PartialJSONFillsFromDefaults(t *testing.T) {
	// Records written by older builds may miss newer keys; decoding into a
	// defaults value must leave those at their default.
	p := DefaultPreferences()
	require.NoError(t, json.Unmarshal([]byte(`{"push_enabled":false}`), &p))

	assert.False(t, p.PushEnabled)
	assert.True(t, p.LocationServices)
}
