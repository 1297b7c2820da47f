package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recurringSweepTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "recurring",
		Name:      "sweep_total",
		Help:      "Count of recurring donation sweeps.",
	}, []string{"status"})

	recurringSweepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "recurring",
		Name:      "sweep_duration_seconds",
		Help:      "Duration of recurring donation sweeps.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	recurringDonationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "recurring",
		Name:      "donations_total",
		Help:      "Count of scheduled donations by outcome.",
	}, []string{"outcome"})
)

// Recurring tracks metrics for the recurring donation sweep.
type Recurring struct{}

// NewRecurring constructs a Recurring collector.
func NewRecurring() *Recurring {
	return &Recurring{}
}

// ObserveSweep records a finished sweep.
func (Recurring) ObserveSweep(err error, started time.Time) {
	status := statusOf(err)
	recurringSweepTotal.WithLabelValues(status).Inc()
	recurringSweepDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}

// ObserveDonation records one scheduled donation; outcome is spawned, failed or cancelled.
func (Recurring) ObserveDonation(outcome string) {
	recurringDonationsTotal.WithLabelValues(outcome).Inc()
}
