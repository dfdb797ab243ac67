// Package metrics provides Prometheus metrics for the SOAP merge service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	SessionsCreated     prometheus.Counter
	SessionsActive      prometheus.Gauge
	LogEntriesParsed    prometheus.Counter
	ItemsExtracted      *prometheus.CounterVec
	Commits             *prometheus.CounterVec
	CommitsDeleted      prometheus.Counter
	RebuildDuration     prometheus.Histogram
	Exports             *prometheus.CounterVec
	OutboxPending       prometheus.Gauge
	CircuitBreakerState *prometheus.GaugeVec
	RequestDuration     *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "soap_sessions_created_total",
			Help: "Total sessions loaded from a note or order log",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "soap_sessions_active",
			Help: "Sessions currently held in memory",
		}),
		LogEntriesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "soap_log_entries_parsed_total",
			Help: "Order log entries parsed",
		}),
		ItemsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soap_items_extracted_total",
			Help: "Aggregated order items by kind",
		}, []string{"kind"}),
		Commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soap_commits_total",
			Help: "Commits by target (new or existing problem)",
		}, []string{"target"}),
		CommitsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "soap_commits_deleted_total",
			Help: "Commits undone by ledger replay",
		}),
		RebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "soap_rebuild_duration_seconds",
			Help:    "Time to delete a commit and replay the ledger",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soap_exports_total",
			Help: "Export deliveries by result",
		}, []string{"result"}),
		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_pending_entries",
			Help: "Pending outbox entries",
		}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.SessionsCreated,
		m.SessionsActive,
		m.LogEntriesParsed,
		m.ItemsExtracted,
		m.Commits,
		m.CommitsDeleted,
		m.RebuildDuration,
		m.Exports,
		m.OutboxPending,
		m.CircuitBreakerState,
		m.RequestDuration,
	)

	return m
}

// Handler returns the Prometheus HTTP handler for g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
