package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the request ledger.
type Metrics struct {
	Created            prometheus.Counter
	Reviewed           *prometheus.CounterVec
	ReviewConflicts    prometheus.Counter
	SignaturesRejected *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Created: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claimbridge_requests_created_total",
			Help: "Total number of claim requests created",
		}),
		Reviewed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimbridge_reviews_total",
			Help: "Total number of claim request reviews by decision",
		}, []string{"decision"}),
		ReviewConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claimbridge_review_conflicts_total",
			Help: "Total number of reviews that lost the pending race",
		}),
		SignaturesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimbridge_signatures_rejected_total",
			Help: "Total number of attestations that failed verification by role",
		}, []string{"role"}),
	}
}

func (m *Metrics) IncCreated() {
	if m != nil {
		m.Created.Inc()
	}
}

func (m *Metrics) IncReviewed(decision string) {
	if m != nil {
		m.Reviewed.WithLabelValues(decision).Inc()
	}
}

func (m *Metrics) IncReviewConflict() {
	if m != nil {
		m.ReviewConflicts.Inc()
	}
}

func (m *Metrics) IncSignatureRejected(role string) {
	if m != nil {
		m.SignaturesRejected.WithLabelValues(role).Inc()
	}
}
