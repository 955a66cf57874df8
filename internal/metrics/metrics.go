// Package metrics defines Prometheus metrics for the device client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "iotlab"

// Connection metrics.
var (
	ConnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mqtt_connects_total",
		Help:      "Total number of successful MQTT bridge connections.",
	})

	ConnectionLostTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mqtt_connection_lost_total",
		Help:      "Total number of unexpected MQTT connection losses.",
	})

	Connected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mqtt_connected",
		Help:      "Whether the MQTT bridge connection is currently up (1) or down (0).",
	})
)

// Publish metrics.
var (
	PublishesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "publishes_total",
		Help:      "Total number of documents published, by message type.",
	}, []string{"type"})

	PublishFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "publish_failures_total",
		Help:      "Total number of failed publish attempts, by message type.",
	}, []string{"type"})

	PublishDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "publish_duration_seconds",
		Help:      "Time from publish call to broker acknowledgement in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Inbound message metrics.
var (
	ConfigUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "config_updates_total",
		Help:      "Total number of configuration documents received.",
	})

	CommandsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Total number of commands received.",
	})
)

// Auth metrics.
var (
	TokenRefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "Total number of device JWT refresh cycles.",
	})
)

// Journal metrics.
var (
	JournalAppendsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "journal_appends_total",
		Help:      "Total number of publish records appended to the journal.",
	})

	JournalErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "journal_errors_total",
		Help:      "Total number of journal write failures.",
	})
)

// Probe metrics.
var (
	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "Result of the last liveness probe (1 healthy, 0 failing).",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "Result of the last readiness probe (1 ready, 0 not ready).",
	})
)

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})
)
