package notify

import "errors"

// Failure taxonomy for the lifecycle manager. Soft failures (token fetch,
// registration) are recovered by the periodic refresh cycle; the rest are
// surfaced to the caller and never crash the host app.
var (
	// ErrPermissionDenied - the user declined the OS notification permission
	ErrPermissionDenied = errors.New("notification permission denied")

	// ErrConfiguration - required project configuration is missing; retrying
	// cannot succeed without a config change
	ErrConfiguration = errors.New("push configuration missing")

	// ErrTokenFetch - transient platform error fetching a device token
	ErrTokenFetch = errors.New("device token fetch failed")

	// ErrRegistration - the remote registration endpoint answered non-2xx or
	// timed out; the locally cached token remains valid
	ErrRegistration = errors.New("token registration failed")

	// ErrScheduleFailed - unknown channel reference or platform scheduling error
	ErrScheduleFailed = errors.New("notification scheduling failed")

	// ErrPreferencePersist - preference write did not reach storage; the
	// in-memory value is still updated
	ErrPreferencePersist = errors.New("preference persist failed")
)
