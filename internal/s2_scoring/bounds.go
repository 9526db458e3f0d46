package s2_scoring

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/wonny/mfatlas/internal/contracts"
)

// horizon indexes the alpha horizons
type horizon int

const (
	horizon1Y horizon = iota
	horizon3Y
	horizon5Y
	horizonCount
)

var horizonWindows = [horizonCount]contracts.Window{
	contracts.Window1Y,
	contracts.Window3Y,
	contracts.Window5Y,
}

// alphaObservation is the stage 1 result for one fund.
// Stage 2 reads it; nothing is written back onto the input.
type alphaObservation struct {
	status      contracts.ScoreStatus
	benchmarkID string
	alphas      [horizonCount]*float64
}

// bound is the observed alpha range of one horizon in one group
type bound struct {
	min float64
	max float64
}

// degenerate reports whether every member normalizes to the neutral score
func (b bound) degenerate() bool {
	return b.min == b.max
}

// groupBounds holds per-benchmark, per-horizon alpha ranges.
// Built once after stage 1, read-only in stage 2.
type groupBounds map[string][horizonCount]bound

// buildBounds aggregates every scored observation into group bounds.
// A horizon with no observations gets min = max = 0.
func buildBounds(observations []alphaObservation) groupBounds {
	samples := make(map[string]*[horizonCount][]float64)
	for _, obs := range observations {
		if obs.status != contracts.ScoreStatusScored {
			continue
		}
		s, ok := samples[obs.benchmarkID]
		if !ok {
			s = &[horizonCount][]float64{}
			samples[obs.benchmarkID] = s
		}
		for h, a := range obs.alphas {
			if a != nil {
				s[h] = append(s[h], *a)
			}
		}
	}

	out := make(groupBounds, len(samples))
	for id, s := range samples {
		var bs [horizonCount]bound
		for h, vals := range s {
			if len(vals) == 0 {
				continue
			}
			bs[h] = bound{min: floats.Min(vals), max: floats.Max(vals)}
		}
		out[id] = bs
	}
	return out
}

// normalize min-max scales alpha into [0, 100] within its group
func (p Policy) normalize(alpha *float64, b bound) *float64 {
	if alpha == nil {
		return nil
	}
	if b.degenerate() {
		return contracts.Float(p.NeutralScore)
	}
	v := (*alpha - b.min) / (b.max - b.min) * 100
	return contracts.Float(math.Max(0, math.Min(100, v)))
}
