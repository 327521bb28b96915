package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ride_notify_deliveries_total",
		Help: "Push deliveries attempted, by transport and outcome.",
	}, []string{"transport", "status"})

	devicesRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ride_notify_devices_registered_total",
		Help: "Device token registrations (including re-registrations).",
	})

	sendsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ride_notify_sends_skipped_total",
		Help: "Recipients skipped because their preference mirror disables push.",
	})

	tokensDeactivatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ride_notify_tokens_deactivated_total",
		Help: "Device tokens deactivated after the push service reported them dead.",
	})
)
