package spawn

import (
	"math/rand"

	"github.com/theUltimateZoltan/Realms/internal/metrics"
)

type ProcessorOpt func(*Processor)

func WithMetrics(m *metrics.Metrics) ProcessorOpt {
	return func(p *Processor) {
		p.metrics = m
	}
}

// WithRandSource replaces the per-tick seeded random source used to pick
// aggro victims.
func WithRandSource(source func() rand.Source) ProcessorOpt {
	return func(p *Processor) {
		p.source = source
	}
}
