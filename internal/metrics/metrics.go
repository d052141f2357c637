// Package metrics declares the Prometheus collectors exported at /metrics.
//
// Collectors are registered on the default registry at package init via
// promauto; callers only increment or observe.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values for SocialActionsTotal.
const (
	ResultChanged = "changed"
	ResultNoop    = "noop"
	ResultError   = "error"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// SocialActionsTotal counts star/unstar/follow/unfollow calls.
	// result is changed, noop (duplicate or missing edge) or error.
	SocialActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_actions_total",
			Help: "Total number of social actions by outcome",
		},
		[]string{"action", "target", "result"},
	)

	NotificationsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_emitted_total",
			Help: "Total number of notifications appended",
		},
		[]string{"kind"},
	)

	NotificationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Total number of notifications dropped after the triggering action committed",
		},
		[]string{"kind"},
	)

	DomainErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_errors_total",
			Help: "Total number of domain errors returned to clients by code",
		},
		[]string{"code", "status"},
	)

	DBTxRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_tx_retries_total",
			Help: "Total number of transactions retried after a busy or locked database",
		},
	)

	DBTxDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_tx_duration_seconds",
			Help:    "Duration of write transactions in seconds, including retries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)
