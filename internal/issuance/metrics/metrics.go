package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Mints          *prometheus.CounterVec
	MintRejections *prometheus.CounterVec
	Burns          prometheus.Counter
	Recoveries     prometheus.Counter
	MintDuration   prometheus.Histogram
	ValueForwarded prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Mints: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigil_mints_total",
			Help: "Total number of successful mints by authorization path",
		}, []string{"path"}),
		MintRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigil_mint_rejections_total",
			Help: "Total number of rejected mints by error code",
		}, []string{"code"}),
		Burns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_burns_total",
			Help: "Total number of successful burn operations",
		}),
		Recoveries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_recoveries_total",
			Help: "Total number of successful recovery operations",
		}),
		MintDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigil_mint_duration_seconds",
			Help:    "Duration of mint operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ValueForwarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_value_forwarded_total",
			Help: "Total value forwarded to the treasury",
		}),
	}
}

func (m *Metrics) IncrementMints(path string) {
	m.Mints.WithLabelValues(path).Inc()
}

func (m *Metrics) IncrementMintRejections(code string) {
	m.MintRejections.WithLabelValues(code).Inc()
}

func (m *Metrics) IncrementBurns() {
	m.Burns.Inc()
}

func (m *Metrics) IncrementRecoveries() {
	m.Recoveries.Inc()
}

func (m *Metrics) ObserveMint(start time.Time) {
	m.MintDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) AddValueForwarded(value uint64) {
	m.ValueForwarded.Add(float64(value))
}
