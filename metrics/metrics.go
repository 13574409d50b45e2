// Package metrics holds the Prometheus instrumentation of the registry host
// and the server exposing it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics tracks registry creation, appended entries, aborted transactions
// and per-operation latency. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RegistriesCreated   prometheus.Counter
	EntriesAppended     prometheus.Counter
	TransactionsAborted *prometheus.CounterVec
	OperationDuration   *prometheus.HistogramVec
}

// NewMetrics creates the registry metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RegistriesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registries_created_total",
			Help:      "Total number of registries created",
		}),
		EntriesAppended: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_appended_total",
			Help:      "Total number of content hashes appended",
		}),
		TransactionsAborted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_aborted_total",
			Help:      "Transactions discarded without effect, by operation and reason",
		}, []string{"operation", "reason"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of registry host operations",
			Buckets:   durationBuckets,
		}, []string{"operation"}),
	}
}

// IncrementRegistriesCreated records a successful create.
func (m *Metrics) IncrementRegistriesCreated() {
	if m == nil {
		return
	}
	m.RegistriesCreated.Inc()
}

// IncrementEntriesAppended records a successful append.
func (m *Metrics) IncrementEntriesAppended() {
	if m == nil {
		return
	}
	m.EntriesAppended.Inc()
}

// IncrementTransactionsAborted records a discarded transaction.
func (m *Metrics) IncrementTransactionsAborted(operation, reason string) {
	if m == nil {
		return
	}
	m.TransactionsAborted.WithLabelValues(operation, reason).Inc()
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
