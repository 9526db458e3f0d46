package contracts

import "time"

// SIPRequest configures a monthly systematic investment plan
type SIPRequest struct {
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	MonthlyAmount float64   `json:"monthly_amount"`
	StepUpPercent float64   `json:"step_up_percent,omitempty"` // 연 증액률 (10 = 10%)
	StepUpMonth   int       `json:"step_up_month,omitempty"`   // 1-12, 0이면 시작월
}

// SIPResult is the outcome of a SIP simulation.
// IsValid=false means the plan starts before the fund existed; totals are zero.
type SIPResult struct {
	TotalInvested    float64    `json:"total_invested"`
	FinalValue       float64    `json:"final_value"`
	UnitsAccumulated float64    `json:"units_accumulated"`
	AbsoluteReturn   float64    `json:"absolute_return"`
	AnnualizedReturn *float64   `json:"annualized_return"`
	Cashflows        []Cashflow `json:"cashflows"`
	IsValid          bool       `json:"is_valid"`
}

// InvalidSIPResult is the zeroed result reported for a plan that predates its fund
func InvalidSIPResult() *SIPResult {
	return &SIPResult{
		Cashflows: []Cashflow{},
		IsValid:   false,
	}
}
