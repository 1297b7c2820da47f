// Package metrics exposes application metrics collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "donation_ledger"

var (
	horizonRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "horizon_client",
		Name:      "operations_total",
		Help:      "Count of ledger API operations.",
	}, []string{"operation", "network", "status"})
	horizonRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "horizon_client",
		Name:      "operation_duration_seconds",
		Help:      "Duration of ledger API operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "network", "status"})
)

// HorizonClient tracks metrics for calls to the ledger API.
type HorizonClient struct {
	network string
}

// NewHorizonClient constructs a metrics collector for ledger API calls.
func NewHorizonClient(network string) *HorizonClient {
	if network == "" {
		network = "unknown"
	}
	return &HorizonClient{network: network}
}

// Observe records a single ledger API call outcome and duration.
func (m HorizonClient) Observe(operation string, err error, started time.Time) {
	status := statusOf(err)
	horizonRequestsTotal.WithLabelValues(operation, m.network, status).Inc()
	horizonRequestDuration.WithLabelValues(operation, m.network, status).Observe(time.Since(started).Seconds())
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
