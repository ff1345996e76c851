// Package metrics provides Prometheus observability for the declaration
// engine: sync legs, queue transmissions, lifecycle transitions, and portal
// call latency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the registered collectors. A nil *Metrics is a no-op so the
// services can run without observability wired (tests do this).
type Metrics struct {
	SyncDocuments  *prometheus.CounterVec
	SyncErrors     *prometheus.CounterVec
	QueueOutcomes  *prometheus.CounterVec
	Transitions    *prometheus.CounterVec
	GatewayLatency *prometheus.HistogramVec
}

// New registers all collectors on the default registry.
func New() *Metrics {
	return &Metrics{
		SyncDocuments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cda_sync_documents_total",
			Help: "Documents fetched and saved per sync leg",
		}, []string{"doc_type", "stage"}), // stage: "fetched", "saved"

		SyncErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cda_sync_errors_total",
			Help: "Sync leg errors by document type and recommended action",
		}, []string{"doc_type", "action"}),

		QueueOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cda_queue_transmissions_total",
			Help: "Queue transmissions by outcome",
		}, []string{"outcome"}), // outcome: "accepted", "failed"

		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cda_declaration_transitions_total",
			Help: "Declaration lifecycle transitions by target status",
		}, []string{"to_status"}),

		GatewayLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cda_gateway_call_duration_seconds",
			Help:    "Duration of customs portal calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}), // operation: "fetch", "transmit", "ping"
	}
}

// CountSyncDocuments records fetched/saved document counts for a leg.
func (m *Metrics) CountSyncDocuments(docType, stage string, n int) {
	if m != nil && n > 0 {
		m.SyncDocuments.WithLabelValues(docType, stage).Add(float64(n))
	}
}

// CountSyncError records one classified sync error.
func (m *Metrics) CountSyncError(docType, action string) {
	if m != nil {
		m.SyncErrors.WithLabelValues(docType, action).Inc()
	}
}

// CountQueueOutcome records one transmission outcome.
func (m *Metrics) CountQueueOutcome(outcome string) {
	if m != nil {
		m.QueueOutcomes.WithLabelValues(outcome).Inc()
	}
}

// CountTransition records one lifecycle transition.
func (m *Metrics) CountTransition(toStatus string) {
	if m != nil {
		m.Transitions.WithLabelValues(toStatus).Inc()
	}
}

// ObserveGatewayLatency records the duration of one portal call.
func (m *Metrics) ObserveGatewayLatency(operation string, d time.Duration) {
	if m != nil {
		m.GatewayLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}
