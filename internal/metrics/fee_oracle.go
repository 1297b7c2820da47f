package metrics

import (
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	feeFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fee_oracle",
		Name:      "fetch_total",
		Help:      "Count of fee statistics lookups by outcome.",
	}, []string{"network", "outcome"})

	feeFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "fee_oracle",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of fee statistics fetches.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "outcome"})

	feeCongestion = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "fee_oracle",
		Name:      "congestion_level",
		Help:      "Last classified congestion level (0 low .. 3 critical).",
	}, []string{"network"})

	feeRecommended = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "fee_oracle",
		Name:      "recommended_fee_stroops",
		Help:      "Recommended base fee per priority.",
		Buckets:   prometheus.ExponentialBuckets(100, 2, 14), // 100..819200
	}, []string{"network", "priority"})
)

// FeeOracle tracks metrics for fee estimation.
type FeeOracle struct {
	network string
}

// NewFeeOracle constructs a FeeOracle collector.
func NewFeeOracle(network string) *FeeOracle {
	if network == "" {
		network = "unknown"
	}
	return &FeeOracle{network: network}
}

// ObserveFetch records a statistics lookup; outcome is success, cache, fallback_cache or fallback_floor.
func (m FeeOracle) ObserveFetch(outcome string, started time.Time) {
	feeFetchTotal.WithLabelValues(m.network, outcome).Inc()
	feeFetchDuration.WithLabelValues(m.network, outcome).Observe(time.Since(started).Seconds())
}

// ObserveRecommendation records a priced fee and the congestion it was priced under.
func (m FeeOracle) ObserveRecommendation(priority model.Priority, congestion model.CongestionLevel, fee int64) {
	feeRecommended.WithLabelValues(m.network, string(priority)).Observe(float64(fee))
	feeCongestion.WithLabelValues(m.network).Set(congestionValue(congestion))
}

func congestionValue(c model.CongestionLevel) float64 {
	switch c {
	case model.CongestionMedium:
		return 1
	case model.CongestionHigh:
		return 2
	case model.CongestionCritical:
		return 3
	default:
		return 0
	}
}
