package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	TypesCreated   prometheus.Counter
	LookupDuration prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		TypesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_credential_types_created_total",
			Help: "Total number of credential types registered",
		}),
		LookupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigil_registry_lookup_duration_seconds",
			Help:    "Duration of registry lookups (mint critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementTypesCreated() {
	m.TypesCreated.Inc()
}

func (m *Metrics) ObserveLookup(start time.Time) {
	m.LookupDuration.Observe(time.Since(start).Seconds())
}
