package xirr

import (
	"math"
	"slices"

	"github.com/wonny/mfatlas/internal/contracts"
)

// Solver defaults
const (
	DefaultGuess         = 0.1
	DefaultMaxIterations = 100
	DefaultTolerance     = 1e-10

	minDerivative = 1e-12
	daysPerYear   = 365.0
)

// Options tunes the Newton-Raphson iteration
type Options struct {
	Guess         float64
	MaxIterations int
	Tolerance     float64
}

// DefaultOptions returns the solver defaults
func DefaultOptions() Options {
	return Options{
		Guess:         DefaultGuess,
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
	}
}

// Rate finds r such that Σ amount_i / (1+r)^(days_i/365) = 0,
// days_i counted from the earliest cashflow. Returns the raw rate (0.1 = 10%).
// ⭐ SSOT: XIRR 계산은 이 함수에서만
func Rate(flows []contracts.Cashflow) (float64, error) {
	return RateWithOptions(flows, DefaultOptions())
}

// RateWithOptions is Rate with explicit solver settings
func RateWithOptions(flows []contracts.Cashflow, opts Options) (float64, error) {
	if len(flows) < 2 || !hasSignChange(flows) {
		return 0, contracts.ErrNoConvergence
	}

	first := slices.MinFunc(flows, func(a, b contracts.Cashflow) int {
		return a.Date.Compare(b.Date)
	}).Date

	years := make([]float64, len(flows))
	var span float64
	for i, cf := range flows {
		years[i] = float64(contracts.DaysBetween(first, cf.Date)) / daysPerYear
		span = math.Max(span, years[i])
	}
	// 모든 현금흐름이 같은 날이면 NPV가 rate와 무관
	if span == 0 {
		return 0, contracts.ErrNoConvergence
	}

	rate := opts.Guess
	for iter := 0; iter < opts.MaxIterations; iter++ {
		f, df := npv(flows, years, rate)

		if math.IsNaN(f) || math.IsInf(f, 0) || math.IsNaN(df) || math.IsInf(df, 0) {
			return 0, contracts.ErrNoConvergence
		}
		if f == 0 {
			return rate, nil
		}
		if math.Abs(df) < minDerivative {
			return 0, contracts.ErrNoConvergence
		}

		next := rate - f/df

		// -100% 이하로 내려가면 (1+r)^t 정의 불가: 중간값으로 당김
		if next <= -1 {
			next = (rate - 1) / 2
		}
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return 0, contracts.ErrNoConvergence
		}

		if math.Abs(next-rate) < opts.Tolerance {
			return next, nil
		}
		rate = next
	}

	return 0, contracts.ErrNoConvergence
}

// Percent returns the rate as a percentage rounded to 2 decimals
func Percent(flows []contracts.Cashflow) (float64, error) {
	r, err := Rate(flows)
	if err != nil {
		return 0, err
	}
	return contracts.Round(r*100, contracts.PercentPlaces), nil
}

// npv returns f(r) and f'(r)
func npv(flows []contracts.Cashflow, years []float64, rate float64) (float64, float64) {
	base := 1 + rate
	var f, df float64
	for i, cf := range flows {
		t := years[i]
		disc := math.Pow(base, t)
		f += cf.Amount / disc
		df -= t * cf.Amount / (disc * base)
	}
	return f, df
}

func hasSignChange(flows []contracts.Cashflow) bool {
	var pos, neg bool
	for _, cf := range flows {
		if cf.Amount > 0 {
			pos = true
		} else if cf.Amount < 0 {
			neg = true
		}
	}
	return pos && neg
}
