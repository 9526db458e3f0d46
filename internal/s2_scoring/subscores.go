package s2_scoring

import (
	"math"
	"strings"

	"github.com/wonny/mfatlas/internal/contracts"
)

// ratingStars maps a star digit to its score, checked from the highest down
var ratingStars = []struct {
	digit string
	score float64
}{
	{"5", 100},
	{"4", 80},
	{"3", 60},
	{"2", 40},
	{"1", 20},
}

// ratingScore maps "5", "4 star", "★★★★ (4)" etc. to 100..20
func (p Policy) ratingScore(rating string) float64 {
	if rating == "" {
		return p.NeutralScore
	}
	for _, s := range ratingStars {
		if strings.Contains(rating, s.digit) {
			return s.score
		}
	}
	return p.NeutralScore
}

// sizeScore rewards AUM inside the sweet spot
func (p Policy) sizeScore(aumCrore float64) float64 {
	b := p.Size
	switch {
	case aumCrore <= 0:
		return 0
	case aumCrore > b.Max:
		return math.Max(0, 100-(aumCrore-b.Max)/b.AboveStep)
	case aumCrore < b.Min:
		return math.Max(0, 100-(b.Min-aumCrore)/b.BelowStep)
	default:
		return 100
	}
}

// reputations returns each AMC's share of the largest AMC total AUM, floored.
// Every fund of the batch counts, scored or not.
func (p Policy) reputations(funds []contracts.ScoringInput) map[string]float64 {
	totals := make(map[string]float64)
	for _, f := range funds {
		if f.AMC == "" || f.AUMCrore <= 0 {
			continue
		}
		totals[f.AMC] += f.AUMCrore
	}

	var largest float64
	for _, total := range totals {
		largest = math.Max(largest, total)
	}

	out := make(map[string]float64, len(totals))
	if largest <= 0 {
		return out
	}
	for amc, total := range totals {
		out[amc] = math.Max(p.ReputationFloor, total/largest*100)
	}
	return out
}

// reputationScore looks up an AMC, unknown AMCs get the neutral score
func (p Policy) reputationScore(reputations map[string]float64, amc string) float64 {
	if v, ok := reputations[amc]; ok {
		return v
	}
	return p.NeutralScore
}

// performanceScore blends whichever normalized horizons are present
func (p Policy) performanceScore(n [horizonCount]*float64) float64 {
	h := p.Horizons
	y1, y3, y5 := n[horizon1Y], n[horizon3Y], n[horizon5Y]

	switch {
	case y1 != nil && y3 != nil && y5 != nil:
		return *y1*h.Full1Y + *y3*h.Full3Y + *y5*h.Full5Y
	case y1 != nil && y3 != nil:
		return *y1*h.Short1Y + *y3*h.Short3Y
	case y1 != nil:
		// 1y만 있으면 (5y가 있어도) 1y 단독
		return *y1
	default:
		return p.NeutralScore
	}
}

// composite blends the four sub-scores
func (p Policy) composite(perf, rating, size, reputation float64) float64 {
	c := p.Composite
	return perf*c.Performance + rating*c.Rating + size*c.Size + reputation*c.Reputation
}
