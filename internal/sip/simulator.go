package sip

import (
	"slices"
	"time"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/internal/history"
	"github.com/wonny/mfatlas/internal/xirr"
)

// Simulate runs a monthly SIP over series and values it at the end date.
//
// Results:
//   - start > end, bad amount or step-up: (nil, error)
//   - start before the first NAV: IsValid=false, zeroed totals, nil error
//   - no contributions or no terminal NAV: (nil, ErrIncalculable)
//
// ⭐ SSOT: SIP 시뮬레이션은 이 함수에서만
func Simulate(series *history.Series, req contracts.SIPRequest) (*contracts.SIPResult, error) {
	start := contracts.CalendarDate(req.StartDate)
	end := contracts.CalendarDate(req.EndDate)

	if start.After(end) {
		return nil, contracts.ErrInvalidDateRange
	}
	if req.MonthlyAmount <= 0 {
		return nil, contracts.ErrInvalidAmount
	}
	if req.StepUpPercent < 0 || req.StepUpMonth < 0 || req.StepUpMonth > 12 {
		return nil, contracts.ErrInvalidStepUp
	}

	earliest, ok := series.Oldest()
	if !ok {
		return nil, contracts.ErrEmptyHistory
	}
	if start.Before(earliest.Date) {
		// 펀드 설정 전 시작
		return contracts.InvalidSIPResult(), nil
	}

	stepUpMonth := time.Month(req.StepUpMonth)
	if stepUpMonth == 0 {
		stepUpMonth = start.Month()
	}

	var (
		cashflows     []contracts.Cashflow
		contribution  = req.MonthlyAmount
		totalUnits    float64
		totalInvested float64
	)

	for i, current := 0, start; !current.After(end); {
		if nav, ok := series.OnOrBefore(current); ok {
			totalUnits += contribution / nav.Value
			totalInvested += contribution
			cashflows = append(cashflows, contracts.Cashflow{
				Date:   nav.Date,
				Amount: -contribution,
			})
		}

		i++
		current = AddMonths(start, i)

		if req.StepUpPercent > 0 && current.Month() == stepUpMonth && current.Year() > start.Year() {
			contribution *= 1 + req.StepUpPercent/100
		}
	}

	terminal, ok := series.OnOrBefore(end)
	if !ok || len(cashflows) == 0 {
		return nil, contracts.ErrIncalculable
	}

	finalValue := totalUnits * terminal.Value

	// 최종 평가액은 XIRR 계산용으로만 추가하고 결과 원장에서는 제외
	ledger := append(cashflows, contracts.Cashflow{Date: terminal.Date, Amount: finalValue})

	result := &contracts.SIPResult{
		TotalInvested:    contracts.Round(totalInvested, contracts.MoneyPlaces),
		FinalValue:       contracts.Round(finalValue, contracts.MoneyPlaces),
		UnitsAccumulated: contracts.Round(totalUnits, contracts.UnitPlaces),
		AbsoluteReturn:   contracts.Round((finalValue-totalInvested)/totalInvested*100, contracts.PercentPlaces),
		Cashflows:        slices.Clip(ledger[:len(ledger)-1]),
		IsValid:          true,
	}

	if rate, err := xirr.Percent(ledger); err == nil {
		result.AnnualizedReturn = &rate
	}

	return result, nil
}

// AddMonths returns start advanced by n calendar months.
// Days past the end of the target month clamp to its last day (Jan 31 + 1 = Feb 28/29).
func AddMonths(start time.Time, n int) time.Time {
	y, m, d := start.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}
