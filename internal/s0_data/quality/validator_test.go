package quality

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/internal/s0_data/memstore"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()

	require.NoError(t, s.Funds().SaveBatch(ctx, []*contracts.Fund{
		{ID: "F1", Name: "Fresh", Active: true},
		{ID: "F2", Name: "Stale", Active: true},
		{ID: "F3", Name: "Empty", Active: true},
		{ID: "F4", Name: "Inactive", Active: false},
	}))
	require.NoError(t, s.FundNAVs().SaveBatch(ctx, "F1", []contracts.HistoryPoint{{Date: day(2026, 2, 26), Value: 10}}))
	require.NoError(t, s.FundNAVs().SaveBatch(ctx, "F2", []contracts.HistoryPoint{{Date: day(2026, 2, 10), Value: 10}}))

	require.NoError(t, s.Indices().Save(ctx, &contracts.Index{ID: "nifty-50"}))
	require.NoError(t, s.Indices().Save(ctx, &contracts.Index{ID: "nifty-500"}))
	require.NoError(t, s.IndexHistory().SaveBatch(ctx, "nifty-50", []contracts.HistoryPoint{{Date: day(2026, 2, 24), Value: 23000}}))
	return s
}

func newGate(s *memstore.Store, cfg Config) *QualityGate {
	return NewQualityGate(s.Funds(), s.FundNAVs(), s.Indices(), s.IndexHistory(), cfg)
}

func TestQualityGate_Check(t *testing.T) {
	s := seed(t)
	gate := newGate(s, Config{MaxStaleDays: 5, MinQualityScore: 0.4})

	snapshot, err := gate.Check(context.Background(), time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, day(2026, 2, 27), snapshot.Date)
	assert.Equal(t, 3, snapshot.TotalFunds)
	assert.Equal(t, 1, snapshot.FreshFunds)
	assert.Equal(t, []string{"F2", "F3"}, snapshot.StaleFunds)
	assert.Equal(t, 2, snapshot.TotalIndices)
	assert.Equal(t, 1, snapshot.FreshIndices)

	assert.InDelta(t, 1.0/3, snapshot.Coverage[CoverageFundNAV], 1e-9)
	assert.InDelta(t, 0.5, snapshot.Coverage[CoverageIndex], 1e-9)
	assert.Equal(t, 0.4167, snapshot.QualityScore)
	assert.True(t, snapshot.Passed)
}

func TestQualityGate_Thresholds(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		wantFresh  int
		wantPassed bool
	}{
		{"strict staleness", Config{MaxStaleDays: 0, MinQualityScore: 0.1}, 0, false},
		{"high bar", Config{MaxStaleDays: 5, MinQualityScore: 0.9}, 1, false},
		{"lenient", Config{MaxStaleDays: 30, MinQualityScore: 0.5}, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := newGate(seed(t), tt.cfg)
			snapshot, err := gate.Check(context.Background(), day(2026, 2, 27))
			require.NoError(t, err)
			assert.Equal(t, tt.wantFresh, snapshot.FreshFunds)
			assert.Equal(t, tt.wantPassed, snapshot.Passed)
		})
	}
}

func TestQualityGate_Empty(t *testing.T) {
	s := memstore.New()
	snapshot, err := newGate(s, Config{MaxStaleDays: 5}).Check(context.Background(), day(2026, 2, 27))
	require.NoError(t, err)

	assert.Zero(t, snapshot.TotalFunds)
	assert.Zero(t, snapshot.QualityScore)
	assert.False(t, snapshot.Passed)
}
