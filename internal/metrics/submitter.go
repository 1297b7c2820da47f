package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submitAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "submitter",
		Name:      "attempts_total",
		Help:      "Count of submission attempts by outcome class.",
	}, []string{"network", "outcome"})

	submitFeeBumpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "submitter",
		Name:      "fee_bumps_total",
		Help:      "Count of fee-bump resubmissions.",
	}, []string{"network"})

	submitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "submitter",
		Name:      "submission_duration_seconds",
		Help:      "Duration of a submission including retries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "status"})

	submitAttemptsPerSubmission = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "submitter",
		Name:      "attempts_per_submission",
		Help:      "Number of attempts a submission needed.",
		Buckets:   prometheus.LinearBuckets(1, 1, 8),
	}, []string{"network", "status"})
)

// Submitter tracks metrics for the submission engine.
type Submitter struct {
	network string
}

// NewSubmitter constructs a Submitter collector.
func NewSubmitter(network string) *Submitter {
	if network == "" {
		network = "unknown"
	}
	return &Submitter{network: network}
}

// ObserveAttempt records one attempt; outcome is success, recoverable, fee or terminal.
func (m Submitter) ObserveAttempt(outcome string) {
	submitAttemptsTotal.WithLabelValues(m.network, outcome).Inc()
}

// ObserveFeeBump records a fee-bump resubmission.
func (m Submitter) ObserveFeeBump() {
	submitFeeBumpsTotal.WithLabelValues(m.network).Inc()
}

// ObserveSubmission records a finished submission.
func (m Submitter) ObserveSubmission(err error, attempts int, started time.Time) {
	status := statusOf(err)
	submitDuration.WithLabelValues(m.network, status).Observe(time.Since(started).Seconds())
	submitAttemptsPerSubmission.WithLabelValues(m.network, status).Observe(float64(attempts))
}
