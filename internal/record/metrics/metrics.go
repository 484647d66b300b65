package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the record module.
// Tracks commit outcomes per entity type and mutation latency.
type Metrics struct {
	CommitsTotal        *prometheus.CounterVec
	CommitConflicts     *prometheus.CounterVec
	NoOpMutations       prometheus.Counter
	IntegrityViolations prometheus.Counter
	CommitDuration      prometheus.Histogram
}

// New creates a new Metrics instance with all record module metrics registered.
func New() *Metrics {
	return &Metrics{
		CommitsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provena_record_commits_total",
			Help: "Total number of committed record versions",
		}, []string{"entity_type"}),
		CommitConflicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provena_record_commit_conflicts_total",
			Help: "Total number of commits rejected because the read version was stale",
		}, []string{"entity_type"}),
		NoOpMutations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "provena_record_noop_mutations_total",
			Help: "Total number of mutations that produced an empty diff",
		}),
		IntegrityViolations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "provena_record_integrity_violations_total",
			Help: "Total number of reads that observed more than one current version",
		}),
		CommitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "provena_record_commit_duration_seconds",
			Help:    "Duration of record mutation commits",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementCommit records a successfully committed version.
func (m *Metrics) IncrementCommit(entityType string) {
	m.CommitsTotal.WithLabelValues(entityType).Inc()
}

// IncrementConflict records a commit lost to a concurrent writer.
func (m *Metrics) IncrementConflict(entityType string) {
	m.CommitConflicts.WithLabelValues(entityType).Inc()
}

// IncrementNoOp records a mutation that changed nothing.
func (m *Metrics) IncrementNoOp() {
	m.NoOpMutations.Inc()
}

// IncrementIntegrityViolation records an observation of multiple current versions.
func (m *Metrics) IncrementIntegrityViolation() {
	m.IntegrityViolations.Inc()
}

// ObserveCommit records the duration of a mutation commit.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCommit(start time.Time) {
	m.CommitDuration.Observe(time.Since(start).Seconds())
}
