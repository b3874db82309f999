package chain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for JSON-RPC traffic.
type Metrics struct {
	CallDuration *prometheus.HistogramVec
	CallErrors   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		CallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "claimbridge_chain_call_duration_seconds",
			Help:    "Duration of chain calls by method",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		CallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimbridge_chain_call_errors_total",
			Help: "Total number of failed chain calls by method",
		}, []string{"method"}),
	}
}

func (m *Metrics) observe(method string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.CallDuration.WithLabelValues(method).Observe(seconds)
	if err != nil {
		m.CallErrors.WithLabelValues(method).Inc()
	}
}
