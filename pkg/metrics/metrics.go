package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxhub_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// BookingAttempts counts booking requests and their outcome
	// (created|duplicate|full|rejected|error).
	BookingAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxhub_booking_attempts_total",
			Help: "Total number of class booking attempts",
		},
		[]string{"result"},
	)

	// NotificationsSent counts dispatched notifications by type.
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxhub_notifications_sent_total",
			Help: "Total number of notifications dispatched",
		},
		[]string{"type"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boxhub_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
