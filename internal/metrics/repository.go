package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	repositoryRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "repository",
		Name:      "operations_total",
		Help:      "Count of repository operations.",
	}, []string{"backend", "operation", "status"})
	repositoryRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "repository",
		Name:      "operation_duration_seconds",
		Help:      "Duration of repository operations.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"backend", "operation", "status"})
)

// Repository tracks metrics for storage operations of one backend.
type Repository struct {
	backend string
}

// NewClickhouseRepository creates a collector for the ClickHouse audit sink.
func NewClickhouseRepository() *Repository {
	return &Repository{backend: "clickhouse"}
}

// NewMongoRepository creates a collector for the MongoDB record store.
func NewMongoRepository() *Repository {
	return &Repository{backend: "mongo"}
}

// Observe records duration and status of a repository operation.
func (m Repository) Observe(operation string, err error, started time.Time) {
	status := statusOf(err)
	repositoryRequestsTotal.WithLabelValues(m.backend, operation, status).Inc()
	repositoryRequestDuration.WithLabelValues(m.backend, operation, status).Observe(time.Since(started).Seconds())
}
