package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the bulk module.
type Metrics struct {
	BatchSize  *prometheus.HistogramVec
	IDFailures *prometheus.CounterVec
}

// New creates a new Metrics instance with all bulk module metrics registered.
func New() *Metrics {
	return &Metrics{
		BatchSize: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "provena_bulk_batch_size",
			Help:    "Number of entities per bulk operation",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}, []string{"operation"}),
		IDFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provena_bulk_id_failures_total",
			Help: "Total number of per-entity failures inside bulk operations",
		}, []string{"operation"}),
	}
}

// ObserveBatch records one bulk run.
func (m *Metrics) ObserveBatch(operation string, size, failures int) {
	m.BatchSize.WithLabelValues(operation).Observe(float64(size))
	m.IDFailures.WithLabelValues(operation).Add(float64(failures))
}
