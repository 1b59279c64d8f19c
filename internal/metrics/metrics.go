// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook metrics
var (
	// WebhooksTotal counts webhook deliveries by kind and outcome.
	WebhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prmetrics_webhooks_total",
		Help: "Total number of webhook deliveries by kind and outcome",
	}, []string{"kind", "outcome"})

	// WebhookDuration observes end-to-end webhook handling time, including event dispatch.
	WebhookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prmetrics_webhook_duration_seconds",
		Help:    "Duration of webhook handling in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// DuplicatesTotal counts deliveries absorbed as duplicates or state conflicts.
	DuplicatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prmetrics_webhook_duplicates_total",
		Help: "Total number of webhook deliveries absorbed as no-ops",
	}, []string{"kind", "reason"})
)

// Engine metrics
var (
	// EventsPublishedTotal counts internal events handed to the publisher.
	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prmetrics_events_published_total",
		Help: "Total number of internal events published",
	}, []string{"kind"})

	// DerivationsTotal counts derived-metric computations by record kind and result.
	DerivationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prmetrics_derivations_total",
		Help: "Total number of derived metric computations",
	}, []string{"record", "result"})
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration observes HTTP request handling time.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP request in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	// PanicsTotal counts handler panics recovered by the HTTP middleware.
	PanicsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_panics_recovered_total",
		Help: "Total number of recovered handler panics",
	}, []string{"route"})
)

// Database metrics
var (
	// DBConnectionsInUse is the number of connections currently in use.
	DBConnectionsInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_connection_pool_in_use",
		Help: "Number of database connections in use",
	})

	// DBConnectionsIdle is the number of idle connections.
	DBConnectionsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_connection_pool_idle",
		Help: "Number of idle database connections",
	})

	// DBWaitCount is the total number of waits for a free connection.
	DBWaitCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_connection_pool_wait_count",
		Help: "Total number of connections waited for",
	})
)
