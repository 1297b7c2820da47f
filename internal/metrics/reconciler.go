package metrics

import (
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconcileBatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconciler",
		Name:      "batch_total",
		Help:      "Count of reconciliation passes.",
	}, []string{"network", "status"})

	reconcileBatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "reconciler",
		Name:      "batch_duration_seconds",
		Help:      "Duration of a reconciliation pass.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "status"})

	reconcileBatchSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "reconciler",
		Name:      "batch_size",
		Help:      "Number of records checked per pass.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10), // 1..512
	}, []string{"network"})

	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "transactions",
		Name:      "transitions_total",
		Help:      "Count of applied status transitions.",
	}, []string{"from", "to"})

	propagationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "transactions",
		Name:      "source_propagation_total",
		Help:      "Count of source record status propagations.",
	}, []string{"source_type", "status"})
)

// Reconciler tracks metrics for reconciliation passes.
type Reconciler struct {
	network string
}

// NewReconciler constructs a Reconciler collector.
func NewReconciler(network string) *Reconciler {
	if network == "" {
		network = "unknown"
	}
	return &Reconciler{network: network}
}

// ObserveBatch records a reconciliation pass.
func (m Reconciler) ObserveBatch(err error, size int, started time.Time) {
	status := statusOf(err)
	reconcileBatchTotal.WithLabelValues(m.network, status).Inc()
	reconcileBatchDuration.WithLabelValues(m.network, status).Observe(time.Since(started).Seconds())
	reconcileBatchSize.WithLabelValues(m.network).Observe(float64(size))
}

// TransactionRecords tracks status machine activity.
type TransactionRecords struct{}

// NewTransactionRecords constructs a TransactionRecords collector.
func NewTransactionRecords() *TransactionRecords {
	return &TransactionRecords{}
}

// ObserveTransition records an applied transition.
func (TransactionRecords) ObserveTransition(from, to model.TxStatus) {
	transitionsTotal.WithLabelValues(string(from), string(to)).Inc()
}

// ObservePropagation records a source record update.
func (TransactionRecords) ObservePropagation(sourceType model.SourceType, err error) {
	propagationTotal.WithLabelValues(string(sourceType), statusOf(err)).Inc()
}
