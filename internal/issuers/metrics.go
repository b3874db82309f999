package issuers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CacheLookups  *prometheus.CounterVec
	RegistryReads prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimbridge_issuer_cache_lookups_total",
			Help: "Issuer directory cache lookups by result",
		}, []string{"result"}),
		RegistryReads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claimbridge_issuer_registry_reads_total",
			Help: "Reads that reached the trusted issuers registry",
		}),
	}
}

func (m *Metrics) lookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) registryRead() {
	if m != nil {
		m.RegistryReads.Inc()
	}
}
