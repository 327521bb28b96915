package notify

import (
	"context"

	"github.com/JSC875/ride-notify/internal/model"
)

// PermissionState is the OS-level notification permission state machine:
// Unrequested -> Requesting -> {Granted, Denied}. Denied is terminal until
// the user changes system settings, which is only observable by re-querying.
type PermissionState int

const (
	PermissionUnrequested PermissionState = iota
	PermissionRequesting
	PermissionGranted
	PermissionDenied
)

func (s PermissionState) String() string {
	switch s {
	case PermissionRequesting:
		return "requesting"
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unrequested"
	}
}

// Subscription is an explicit handle for a platform event listener. Close is
// idempotent and must be called during teardown.
type Subscription interface {
	Close()
}

// Platform is the boundary to the device's notification runtime: permission
// prompts, push-token issuance, delivery channels, the local notification
// queue and the received/responded event streams. Implementations are
// provided by the host app shell; tests use a fake.
type Platform interface {
	// PermissionStatus re-queries the OS permission without prompting.
	PermissionStatus(ctx context.Context) (PermissionState, error)

	// RequestPermission shows the OS prompt and reports the outcome.
	RequestPermission(ctx context.Context) (PermissionState, error)

	// FetchToken obtains a push-delivery token scoped to the given project.
	FetchToken(ctx context.Context, projectID string) (string, error)

	// EnsureChannel upserts a delivery channel. Platforms without a channel
	// concept return nil.
	EnsureChannel(ctx context.Context, ch model.Channel) error

	// Schedule enqueues a local notification and returns the platform id.
	// A nil trigger fires immediately; PriorityHigh is additionally marked
	// sticky where the platform supports it.
	Schedule(ctx context.Context, n model.ScheduledNotification) (string, error)

	// Cancel removes one scheduled notification. Unknown or already-fired
	// ids are not an error.
	Cancel(ctx context.Context, id string) error

	// CancelAll drains the scheduled queue.
	CancelAll(ctx context.Context) error

	// ListScheduled snapshots the platform queue, for diagnostics.
	ListScheduled(ctx context.Context) ([]model.ScheduledNotification, error)

	// SetForegroundDisplay installs the foreground display behavior: when
	// false the runtime suppresses banners for incoming notifications.
	SetForegroundDisplay(show bool)

	// SubscribeReceived registers a listener for notifications delivered
	// while the app is in the foreground.
	SubscribeReceived(fn func(model.NotificationEvent)) Subscription

	// SubscribeResponded registers a listener for notifications the user
	// acted on (tap).
	SubscribeResponded(fn func(model.NotificationEvent)) Subscription
}
