package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JSC875/ride-notify/internal/model"
)

// fakePlatform is an in-memory Platform for tests: scripted permission
// answers, counted token fetches, and a real scheduled queue.
type fakePlatform struct {
	mu sync.Mutex

	status       PermissionState
	promptResult PermissionState
	promptCalls  int

	tokenValue string
	tokenErr   error
	fetchCalls int

	channels     map[string]model.Channel
	channelCalls int

	nextID    int
	queue     map[string]model.ScheduledNotification
	schedErr  error
	schedules int

	foreground     bool
	foregroundSets int

	received  []func(model.NotificationEvent)
	responded []func(model.NotificationEvent)
	subCalls  int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		status:       PermissionUnrequested,
		promptResult: PermissionGranted,
		tokenValue:   "ExponentPushToken[test-0001]",
		channels:     make(map[string]model.Channel),
		queue:        make(map[string]model.ScheduledNotification),
	}
}

func (f *fakePlatform) PermissionStatus(_ context.Context) (PermissionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakePlatform) RequestPermission(_ context.Context) (PermissionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.promptCalls++
	f.status = f.promptResult
	return f.promptResult, nil
}

func (f *fakePlatform) FetchToken(_ context.Context, projectID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	if projectID == "" {
		return "", errors.New("missing project id")
	}
	return f.tokenValue, nil
}

func (f *fakePlatform) EnsureChannel(_ context.Context, ch model.Channel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channelCalls++
	f.channels[ch.ID] = ch
	return nil
}

func (f *fakePlatform) Schedule(_ context.Context, n model.ScheduledNotification) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedules++
	if f.schedErr != nil {
		return "", f.schedErr
	}
	f.nextID++
	n.ID = fmt.Sprintf("sched-%d", f.nextID)
	f.queue[n.ID] = n
	return n.ID, nil
}

func (f *fakePlatform) Cancel(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.queue, id)
	return nil
}

func (f *fakePlatform) CancelAll(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = make(map[string]model.ScheduledNotification)
	return nil
}

func (f *fakePlatform) ListScheduled(_ context.Context) ([]model.ScheduledNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.ScheduledNotification, 0, len(f.queue))
	for _, n := range f.queue {
		out = append(out, n)
	}
	return out, nil
}

func (f *fakePlatform) SetForegroundDisplay(show bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.foreground = show
	f.foregroundSets++
}

func (f *fakePlatform) SubscribeReceived(fn func(model.NotificationEvent)) Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subCalls++
	f.received = append(f.received, fn)
	return &fakeSub{}
}

func (f *fakePlatform) SubscribeResponded(fn func(model.NotificationEvent)) Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subCalls++
	f.responded = append(f.responded, fn)
	return &fakeSub{}
}

// emitReceived feeds an event to every received listener, like a foreground
// delivery would.
func (f *fakePlatform) emitReceived(evt model.NotificationEvent) {
	f.mu.Lock()
	listeners := append([]func(model.NotificationEvent){}, f.received...)
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(evt)
	}
}

func (f *fakePlatform) emitResponded(evt model.NotificationEvent) {
	f.mu.Lock()
	listeners := append([]func(model.NotificationEvent){}, f.responded...)
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(evt)
	}
}

func (f *fakePlatform) queueSize() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

type fakeSub struct {
	mu     sync.Mutex
	closed bool
}

func (s *fakeSub) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
