package notify

import (
	"context"
	"log"
	"sync"
)

// PermissionGate requests and caches the OS notification permission.
type PermissionGate struct {
	platform Platform
	mu       sync.Mutex
	state    PermissionState

	// onDenied shows the one-time explanation with a deep link to system
	// settings. Invoked at most once per process.
	onDenied  func()
	explained bool
}

func NewPermissionGate(platform Platform, onDenied func()) *PermissionGate {
	return &PermissionGate{platform: platform, onDenied: onDenied}
}

// State returns the cached permission state
func (g *PermissionGate) State() PermissionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Request resolves the permission: idempotent when already granted (no OS
// prompt), otherwise prompts once. Denial is not retried automatically; the
// caller must call Request again after the user returns from settings.
func (g *PermissionGate) Request(ctx context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Re-query first: the user may have flipped the permission in system
	// settings since we last looked.
	status, err := g.platform.PermissionStatus(ctx)
	if err != nil {
		return false, err
	}
	if status == PermissionGranted {
		g.state = PermissionGranted
		return true, nil
	}

	g.state = PermissionRequesting
	status, err = g.platform.RequestPermission(ctx)
	if err != nil {
		g.state = PermissionUnrequested
		return false, err
	}

	if status == PermissionGranted {
		g.state = PermissionGranted
		// The default channel must exist at max importance before anything
		// is delivered through it.
		if err := g.platform.EnsureChannel(ctx, DefaultChannel()); err != nil {
			log.Printf("⚠️ Failed to configure default channel: %v", err)
		}
		return true, nil
	}

	g.state = PermissionDenied
	if !g.explained && g.onDenied != nil {
		g.explained = true
		g.onDenied()
	}
	return false, nil
}
