package sip

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/internal/s0_data/memstore"
	"github.com/wonny/mfatlas/pkg/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	require.NoError(t, store.Funds().Save(ctx, &contracts.Fund{ID: "F", Name: "Flat Fund", Active: true}))
	var points []contracts.HistoryPoint
	for d := day(2020, 1, 1); !d.After(day(2020, 12, 31)); d = d.AddDate(0, 0, 1) {
		points = append(points, contracts.HistoryPoint{Date: d, Value: 10})
	}
	require.NoError(t, store.FundNAVs().SaveBatch(ctx, "F", points))

	return NewService(store.Funds(), store.FundNAVs(), Defaults{MonthlyAmount: 1000}, logger.Nop())
}

func TestService_Run(t *testing.T) {
	svc := newTestService(t)

	summary, err := svc.Run(context.Background(), Request{FundID: "F", StartDate: day(2020, 1, 15)})
	require.NoError(t, err)

	// 기본값 적용
	assert.Equal(t, 1000.0, summary.Plan.MonthlyAmount)
	assert.Equal(t, day(2020, 12, 31), summary.Plan.EndDate)

	require.True(t, summary.Result.IsValid)
	assert.Equal(t, 12000.0, summary.Result.TotalInvested)
	assert.Equal(t, "₹12,000.00", summary.Invested)
	assert.Equal(t, "₹12,000.00", summary.Value)
	assert.Equal(t, "Flat Fund", summary.Fund.Name)
}

func TestService_Run_Errors(t *testing.T) {
	svc := newTestService(t)
	stepUp := -5.0

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"unknown fund", Request{FundID: "X", StartDate: day(2020, 1, 15)}, contracts.ErrNotFound},
		{"start after end", Request{FundID: "F", StartDate: day(2020, 6, 1), EndDate: day(2020, 5, 1)}, contracts.ErrInvalidDateRange},
		{"negative step-up", Request{FundID: "F", StartDate: day(2020, 1, 15), StepUpPercent: &stepUp}, contracts.ErrInvalidStepUp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Run(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Run_BeforeInception(t *testing.T) {
	svc := newTestService(t)

	summary, err := svc.Run(context.Background(), Request{FundID: "F", StartDate: day(2019, 6, 1)})
	require.NoError(t, err)
	assert.False(t, summary.Result.IsValid)
	assert.Equal(t, "₹0.00", summary.Invested)
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		v        float64
		currency string
		want     string
	}{
		{1234.5, "INR", "₹1,234.50"},
		{0, "INR", "₹0.00"},
		{99.999, "USD", "$100.00"},
		{12.3, "???", "12.30"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.v, tt.currency))
		})
	}
}
