package notify

import (
	"context"
	"log"

	"github.com/JSC875/ride-notify/internal/model"
)

// Handler reacts to one notification event. Received handlers are
// side-effect points only (analytics, state refresh) and must not schedule
// or cancel notifications; responded handlers express the navigation intent
// for a tapped notification.
type Handler func(ctx context.Context, evt model.NotificationEvent)

// Handlers names one handler per notification variant. A nil field falls
// through to Generic. Keeping the fields explicit means a new variant shows
// up here and in the dispatch switch, not in a silently-ignored default.
type Handlers struct {
	RideRequest   Handler
	RideAccepted  Handler
	RideArrived   Handler
	RideStarted   Handler
	RideCompleted Handler
	Payment       Handler
	PaymentFailed Handler
	Promo         Handler
	Chat          Handler
	Generic       Handler
}

func (h Handlers) pick(t model.NotificationType) Handler {
	var fn Handler
	switch t {
	case model.NotificationTypeRideRequest:
		fn = h.RideRequest
	case model.NotificationTypeRideAccepted:
		fn = h.RideAccepted
	case model.NotificationTypeRideArrived:
		fn = h.RideArrived
	case model.NotificationTypeRideStarted:
		fn = h.RideStarted
	case model.NotificationTypeRideCompleted:
		fn = h.RideCompleted
	case model.NotificationTypePayment:
		fn = h.Payment
	case model.NotificationTypePaymentFailed:
		fn = h.PaymentFailed
	case model.NotificationTypePromo:
		fn = h.Promo
	case model.NotificationTypeChat:
		fn = h.Chat
	case model.NotificationTypeGeneral:
		fn = h.Generic
	}
	if fn == nil {
		fn = h.Generic
	}
	return fn
}

// Dispatcher routes platform notification events to per-type handlers. Two
// distinct tables: what to do when a notification arrives in the foreground
// versus what to do when the user taps one.
type Dispatcher struct {
	received  Handlers
	responded Handlers
	subs      []Subscription
}

func NewDispatcher(received, responded Handlers) *Dispatcher {
	return &Dispatcher{received: received, responded: responded}
}

// OnReceived dispatches a foreground-delivery event
func (d *Dispatcher) OnReceived(ctx context.Context, evt model.NotificationEvent) {
	d.invoke(ctx, d.received.pick(evt.Payload.Type), evt)
}

// OnResponded dispatches a user-tap event to the navigation-intent table
func (d *Dispatcher) OnResponded(ctx context.Context, evt model.NotificationEvent) {
	d.invoke(ctx, d.responded.pick(evt.Payload.Type), evt)
}

// invoke isolates handler failures: one panicking handler must not prevent
// dispatch of subsequent events.
func (d *Dispatcher) invoke(ctx context.Context, fn Handler, evt model.NotificationEvent) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ Notification handler panic for type %q: %v", evt.Payload.Type, r)
		}
	}()
	fn(ctx, evt)
}

// Attach subscribes to the platform's event streams. Idempotent: a second
// call while attached is a no-op.
func (d *Dispatcher) Attach(platform Platform) {
	if len(d.subs) > 0 {
		return
	}
	ctx := context.Background()
	d.subs = append(d.subs,
		platform.SubscribeReceived(func(evt model.NotificationEvent) {
			d.OnReceived(ctx, evt)
		}),
		platform.SubscribeResponded(func(evt model.NotificationEvent) {
			d.OnResponded(ctx, evt)
		}),
	)
}

// Detach closes the subscriptions; safe to call when never attached
func (d *Dispatcher) Detach() {
	for _, sub := range d.subs {
		sub.Close()
	}
	d.subs = nil
}
