package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for claim publication.
type Metrics struct {
	Published *prometheus.CounterVec
	Duration  prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		Published: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimbridge_publish_total",
			Help: "Total number of publish attempts by outcome",
		}, []string{"outcome"}),
		Duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "claimbridge_publish_duration_seconds",
			Help:    "Time from submission to confirmation or failure",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
	}
}

func (m *Metrics) observe(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Published.WithLabelValues(outcome).Inc()
	m.Duration.Observe(seconds)
}
