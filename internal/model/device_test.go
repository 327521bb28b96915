package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceToken_IsExpo(t *testing.T) {
	assert.True(t, DeviceToken{Value: "ExponentPushToken[xxxxxxxxxxxxxxxxxxxxxx]"}.IsExpo())
	assert.False(t, DeviceToken{Value: "fcm-raw-token-aaaaaaaa"}.IsExpo())
	assert.False(t, DeviceToken{Value: ""}.IsExpo())
	assert.False(t, DeviceToken{Value: "ExponentPushToken["}.IsExpo(), "prefix alone is not a token")
}

func TestTypes_CoversEveryVariant(t *testing.T) {
	seen := map[NotificationType]bool{}
	for _, typ := range Types() {
		assert.False(t, seen[typ], "duplicate type %s", typ)
		seen[typ] = true
	}
	assert.True(t, seen[NotificationTypeRideRequest])
	assert.True(t, seen[NotificationTypeChat])
	assert.True(t, seen[NotificationTypeGeneral])
	assert.Len(t, seen, 10)
}
