package s1_returns

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/internal/history"
)

// AnchorPolicy selects how the past point of a window is resolved
type AnchorPolicy string

const (
	// AnchorForwardFill resolves the past point on-or-after the window start,
	// refusing windows that start before inception.
	AnchorForwardFill AnchorPolicy = "forward_fill"

	// AnchorBackwardFill resolves the past point on-or-before the window start.
	AnchorBackwardFill AnchorPolicy = "backward_fill"
)

const (
	daysPerYear           = 365.0
	daysPerYearInception  = 365.25
	inceptionAnnualizeMin = 365 // days
)

// Calculator computes trailing returns for one series
// ⭐ SSOT: 기간 수익률 계산은 여기서만
type Calculator struct {
	policy AnchorPolicy
}

// NewCalculator creates a calculator with the given anchor policy
func NewCalculator(policy AnchorPolicy) (*Calculator, error) {
	switch policy {
	case AnchorForwardFill, AnchorBackwardFill:
	case "":
		policy = AnchorForwardFill
	default:
		return nil, fmt.Errorf("unknown anchor policy: %q", policy)
	}
	return &Calculator{policy: policy}, nil
}

// Policy returns the configured anchor policy
func (c *Calculator) Policy() AnchorPolicy {
	return c.policy
}

// Compute validates points and computes their trailing returns.
// Implements contracts.ReturnCalculator.
func (c *Calculator) Compute(points []contracts.HistoryPoint, inception time.Time) (contracts.TrailingReturns, error) {
	series, err := history.New(points)
	if err != nil {
		return contracts.TrailingReturns{}, err
	}
	return c.ComputeSeries(series, inception), nil
}

// ComputeSeries computes every window for series.
// inception is the fund start date from metadata; zero means the oldest point.
// A window whose anchor cannot be resolved stays nil; other windows are unaffected.
func (c *Calculator) ComputeSeries(series *history.Series, inception time.Time) contracts.TrailingReturns {
	var out contracts.TrailingReturns

	latest, ok := series.Latest()
	if !ok {
		return out
	}

	// 1d: 직전 거래일 대비 (달력 기준 1일 전은 휴일일 가능성이 높음)
	if prev, ok := series.Previous(); ok {
		out.D1 = absoluteReturn(latest.Value, prev.Value)
	}

	for _, spec := range contracts.OffsetWindows {
		target := latest.Date.AddDate(0, 0, -spec.Days)
		past, ok := c.anchor(series, target, inception)
		if !ok {
			continue
		}
		if spec.Annualized {
			out.Set(spec.Window, annualizedReturn(latest.Value, past.Value, float64(spec.Days)/daysPerYear))
		} else {
			out.Set(spec.Window, absoluteReturn(latest.Value, past.Value))
		}
	}

	out.SinceInception = sinceInception(series, latest, inception)
	return out
}

// anchor resolves the past point for a window start date
func (c *Calculator) anchor(series *history.Series, target, inception time.Time) (contracts.HistoryPoint, bool) {
	if c.policy == AnchorBackwardFill {
		if !inception.IsZero() && target.Before(contracts.CalendarDate(inception)) {
			return contracts.HistoryPoint{}, false
		}
		return series.OnOrBefore(target)
	}

	p, err := series.OnOrAfter(target, inception)
	if err != nil {
		return contracts.HistoryPoint{}, false
	}
	return p, true
}

func sinceInception(series *history.Series, latest contracts.HistoryPoint, inception time.Time) *float64 {
	oldest, _ := series.Oldest()
	if oldest.Date.Equal(latest.Date) {
		return nil
	}

	start := oldest.Date
	if !inception.IsZero() {
		start = contracts.CalendarDate(inception)
	}

	span := contracts.DaysBetween(start, latest.Date)
	if span > inceptionAnnualizeMin {
		return annualizedReturn(latest.Value, oldest.Value, float64(span)/daysPerYearInception)
	}
	return absoluteReturn(latest.Value, oldest.Value)
}

// absoluteReturn = (latest/past - 1) * 100
func absoluteReturn(latest, past float64) *float64 {
	if past <= 0 || latest <= 0 {
		return nil
	}
	return contracts.Float(contracts.Round((latest/past-1)*100, contracts.PercentPlaces))
}

// annualizedReturn = (pow(latest/past, 1/years) - 1) * 100
func annualizedReturn(latest, past, years float64) *float64 {
	if past <= 0 || latest <= 0 || years <= 0 {
		return nil
	}
	v := (math.Pow(latest/past, 1/years) - 1) * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return contracts.Float(contracts.Round(v, contracts.PercentPlaces))
}
