package sip

import (
	"context"
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/internal/history"
	"github.com/wonny/mfatlas/pkg/logger"
)

// DefaultCurrency is used when no currency is configured
const DefaultCurrency = money.INR

// Defaults fill fields missing from a request
type Defaults struct {
	MonthlyAmount float64
	StepUpPercent float64
	Currency      string
}

// Request is a SIP simulation request against a stored fund
type Request struct {
	FundID        string    `json:"fund_id"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date,omitempty"` // zero → latest NAV date
	MonthlyAmount float64   `json:"monthly_amount,omitempty"`
	StepUpPercent *float64  `json:"step_up_percent,omitempty"`
	StepUpMonth   int       `json:"step_up_month,omitempty"`
}

// Summary is a simulation result with display-ready amounts
type Summary struct {
	Fund     *contracts.Fund      `json:"fund"`
	Plan     contracts.SIPRequest `json:"plan"`
	Result   *contracts.SIPResult `json:"result"`
	Invested string               `json:"invested_display"`
	Value    string               `json:"value_display"`
	Gain     string               `json:"gain_display"`
}

// Service runs SIP simulations on stored NAV histories
type Service struct {
	funds    contracts.FundRepository
	navs     contracts.NAVRepository
	defaults Defaults
	logger   *logger.Logger
}

// NewService creates a SIP service
func NewService(funds contracts.FundRepository, navs contracts.NAVRepository, defaults Defaults, log *logger.Logger) *Service {
	if defaults.Currency == "" {
		defaults.Currency = DefaultCurrency
	}
	return &Service{
		funds:    funds,
		navs:     navs,
		defaults: defaults,
		logger:   log.WithField("module", "sip"),
	}
}

// Run simulates req on the fund's stored NAV history
func (s *Service) Run(ctx context.Context, req Request) (*Summary, error) {
	fund, err := s.funds.GetByID(ctx, req.FundID)
	if err != nil {
		return nil, err
	}

	points, err := s.navs.GetHistory(ctx, fund.ID)
	if err != nil {
		return nil, fmt.Errorf("load nav history: %w", err)
	}
	series, err := history.New(points)
	if err != nil {
		return nil, fmt.Errorf("nav history %s: %w", fund.ID, err)
	}

	plan := s.plan(req, series)
	result, err := Simulate(series, plan)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"fund_id":  fund.ID,
		"start":    plan.StartDate.Format("2006-01-02"),
		"end":      plan.EndDate.Format("2006-01-02"),
		"monthly":  plan.MonthlyAmount,
		"is_valid": result.IsValid,
	}).Debug("SIP simulated")

	cur := s.defaults.Currency
	return &Summary{
		Fund:     fund,
		Plan:     plan,
		Result:   result,
		Invested: FormatAmount(result.TotalInvested, cur),
		Value:    FormatAmount(result.FinalValue, cur),
		Gain:     FormatAmount(result.FinalValue-result.TotalInvested, cur),
	}, nil
}

// plan applies defaults to req
func (s *Service) plan(req Request, series *history.Series) contracts.SIPRequest {
	plan := contracts.SIPRequest{
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		MonthlyAmount: req.MonthlyAmount,
		StepUpPercent: s.defaults.StepUpPercent,
		StepUpMonth:   req.StepUpMonth,
	}
	if req.StepUpPercent != nil {
		plan.StepUpPercent = *req.StepUpPercent
	}
	if plan.MonthlyAmount == 0 {
		plan.MonthlyAmount = s.defaults.MonthlyAmount
	}
	if plan.EndDate.IsZero() {
		if latest, ok := series.Latest(); ok {
			plan.EndDate = latest.Date
		}
	}
	return plan
}

// FormatAmount renders v with the currency symbol and grouping, e.g. ₹10,000.00
func FormatAmount(v float64, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return decimal.NewFromFloat(v).StringFixed(2)
	}
	// minor unit 변환
	minor := decimal.NewFromFloat(v).Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), currency).Display()
}
