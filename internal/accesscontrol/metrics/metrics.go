package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	PauseToggles      prometheus.Counter
	MinterEdits       prometheus.Counter
	SignerRotations   prometheus.Counter
	OwnershipHandover prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		PauseToggles: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_pause_toggles_total",
			Help: "Total number of pause/unpause transitions",
		}),
		MinterEdits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_minter_edits_total",
			Help: "Total number of minter set additions and removals",
		}),
		SignerRotations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_signer_rotations_total",
			Help: "Total number of trusted signer key rotations",
		}),
		OwnershipHandover: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_ownership_transfers_total",
			Help: "Total number of ownership transfers",
		}),
	}
}

func (m *Metrics) IncrementPauseToggles() {
	m.PauseToggles.Inc()
}

func (m *Metrics) IncrementMinterEdits() {
	m.MinterEdits.Inc()
}

func (m *Metrics) IncrementSignerRotations() {
	m.SignerRotations.Inc()
}

func (m *Metrics) IncrementOwnershipHandover() {
	m.OwnershipHandover.Inc()
}
