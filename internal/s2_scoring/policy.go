package s2_scoring

import (
	"fmt"
	"math"
)

// Neutral and floor values used when an input is unknown.
// 정책값이며 버그가 아님
const (
	// NeutralScore is given to an unrated fund, a fund with no 1y alpha,
	// and every member of a degenerate (min == max) group.
	NeutralScore = 50.0

	// ReputationFloor is the minimum reputation score of any AMC
	ReputationFloor = 50.0
)

// CompositeWeights blend the four sub-scores into the composite
type CompositeWeights struct {
	Performance float64
	Rating      float64
	Size        float64
	Reputation  float64
}

// HorizonWeights blend normalized alphas into the performance score
type HorizonWeights struct {
	// 1y, 3y, 5y 모두 있을 때
	Full1Y float64
	Full3Y float64
	Full5Y float64

	// 1y, 3y만 있을 때
	Short1Y float64
	Short3Y float64
}

// SizeBand is the AUM sweet spot in crore
type SizeBand struct {
	Min       float64 // 만점 하한
	Max       float64 // 만점 상한
	BelowStep float64 // 하한 미만: BelowStep 당 1점 감점
	AboveStep float64 // 상한 초과: AboveStep 당 1점 감점
}

// Policy holds every tunable number of the scoring engine
type Policy struct {
	Composite       CompositeWeights
	Horizons        HorizonWeights
	Size            SizeBand
	NeutralScore    float64
	ReputationFloor float64
}

// DefaultPolicy returns the production weights
func DefaultPolicy() Policy {
	return Policy{
		Composite: CompositeWeights{
			Performance: 0.86,
			Rating:      0.10,
			Size:        0.02,
			Reputation:  0.02,
		},
		Horizons: HorizonWeights{
			Full1Y:  0.30,
			Full3Y:  0.45,
			Full5Y:  0.25,
			Short1Y: 0.40,
			Short3Y: 0.60,
		},
		Size: SizeBand{
			Min:       10000,
			Max:       50000,
			BelowStep: 500,
			AboveStep: 10000,
		},
		NeutralScore:    NeutralScore,
		ReputationFloor: ReputationFloor,
	}
}

const weightTolerance = 1e-6

// Validate checks that weight groups sum to 1 and the size band is well formed
func (p Policy) Validate() error {
	c := p.Composite
	if sum := c.Performance + c.Rating + c.Size + c.Reputation; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("composite weights must sum to 1, got %.4f", sum)
	}

	h := p.Horizons
	if sum := h.Full1Y + h.Full3Y + h.Full5Y; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("1y/3y/5y weights must sum to 1, got %.4f", sum)
	}
	if sum := h.Short1Y + h.Short3Y; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("1y/3y weights must sum to 1, got %.4f", sum)
	}

	s := p.Size
	if s.Min <= 0 || s.Max < s.Min {
		return fmt.Errorf("size band must satisfy 0 < min <= max, got [%v, %v]", s.Min, s.Max)
	}
	if s.BelowStep <= 0 || s.AboveStep <= 0 {
		return fmt.Errorf("size penalty steps must be positive")
	}

	if p.NeutralScore < 0 || p.NeutralScore > 100 {
		return fmt.Errorf("neutral score must be within [0, 100], got %v", p.NeutralScore)
	}
	if p.ReputationFloor < 0 || p.ReputationFloor > 100 {
		return fmt.Errorf("reputation floor must be within [0, 100], got %v", p.ReputationFloor)
	}
	return nil
}
