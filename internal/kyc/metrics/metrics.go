package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the kyc module.
type Metrics struct {
	ReviewsTotal   *prometheus.CounterVec
	Resubmissions  prometheus.Counter
	EffectFailures *prometheus.CounterVec
}

// New creates a new Metrics instance with all kyc module metrics registered.
func New() *Metrics {
	return &Metrics{
		ReviewsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provena_kyc_reviews_total",
			Help: "Total number of completed review decisions",
		}, []string{"outcome"}),
		Resubmissions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "provena_kyc_resubmissions_total",
			Help: "Total number of document resubmissions after more info was requested",
		}),
		EffectFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provena_kyc_effect_failures_total",
			Help: "Total number of post-decision side effects that failed",
		}, []string{"effect"}),
	}
}

// IncrementReview records a completed review decision.
func (m *Metrics) IncrementReview(outcome string) {
	m.ReviewsTotal.WithLabelValues(outcome).Inc()
}

// IncrementResubmission records a document resubmission.
func (m *Metrics) IncrementResubmission() {
	m.Resubmissions.Inc()
}

// IncrementEffectFailure records a failed post-decision side effect.
func (m *Metrics) IncrementEffectFailure(effect string) {
	m.EffectFailures.WithLabelValues(effect).Inc()
}
