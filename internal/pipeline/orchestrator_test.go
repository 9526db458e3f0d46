package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/internal/s0_data/memstore"
	"github.com/wonny/mfatlas/internal/s0_data/quality"
	"github.com/wonny/mfatlas/internal/s1_returns"
	"github.com/wonny/mfatlas/internal/s2_scoring"
	"github.com/wonny/mfatlas/pkg/logger"
)

var asOf = time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)

// growth builds a daily series compounding at annual rate up to asOf
func growth(start, annual float64, days int) []contracts.HistoryPoint {
	out := make([]contracts.HistoryPoint, 0, days+1)
	for i := days; i >= 0; i-- {
		elapsed := float64(days - i)
		out = append(out, contracts.HistoryPoint{
			Date:  asOf.AddDate(0, 0, -i),
			Value: start * math.Pow(1+annual, elapsed/365),
		})
	}
	return out
}

type recordingSaver struct {
	snapshots []*contracts.DataQualitySnapshot
}

func (r *recordingSaver) SaveSnapshot(_ context.Context, s *contracts.DataQualitySnapshot) error {
	r.snapshots = append(r.snapshots, s)
	return nil
}

type countingFlusher struct {
	calls int
}

func (c *countingFlusher) Flush(_ context.Context) (int, error) {
	c.calls++
	return 7, nil
}

type failingMetrics struct {
	contracts.MetricsRepository
}

func (failingMetrics) SaveFundReturns(context.Context, string, map[string]contracts.TrailingReturns) error {
	return errors.New("connection reset")
}

func seedStore(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()

	require.NoError(t, s.Funds().SaveBatch(ctx, []*contracts.Fund{
		{ID: "A", Name: "Alpha Large Cap", AssetClass: contracts.AssetClassEquity, SubCategory: "Large Cap Fund", AMC: "X", Rating: "5", AUMCrore: 20000, Active: true},
		{ID: "B", Name: "Beta Large Cap", AssetClass: contracts.AssetClassEquity, SubCategory: "Large Cap Fund", AMC: "Y", Rating: "3", AUMCrore: 5000, Active: true},
		{ID: "C", Name: "Gamma Hybrid", AssetClass: contracts.AssetClassHybrid, SubCategory: "Aggressive Hybrid Fund", AMC: "X", AUMCrore: 3000, Active: true},
		{ID: "D", Name: "Delta Large Cap", AssetClass: contracts.AssetClassEquity, SubCategory: "Large Cap Fund", AMC: "Z", Active: true},
	}))
	require.NoError(t, s.FundNAVs().SaveBatch(ctx, "A", growth(100, 0.20, 400)))
	require.NoError(t, s.FundNAVs().SaveBatch(ctx, "B", growth(50, 0.05, 400)))
	require.NoError(t, s.FundNAVs().SaveBatch(ctx, "C", growth(20, 0.10, 400)))

	require.NoError(t, s.Indices().Save(ctx, &contracts.Index{ID: "nifty-50", YahooSymbol: "^NSEI", SubCategories: []string{"Large Cap Fund"}}))
	require.NoError(t, s.IndexHistory().SaveBatch(ctx, "nifty-50", growth(20000, 0.10, 400)))
	return s
}

func newTestOrchestrator(t *testing.T, s *memstore.Store, metrics contracts.MetricsRepository, saver SnapshotSaver, cache CacheFlusher, minScore float64) *Orchestrator {
	t.Helper()
	calc, err := s1_returns.NewCalculator(s1_returns.AnchorForwardFill)
	require.NoError(t, err)

	gate := quality.NewQualityGate(s.Funds(), s.FundNAVs(), s.Indices(), s.IndexHistory(),
		quality.Config{MaxStaleDays: 5, MinQualityScore: minScore})
	engine := s2_scoring.NewEngine(map[string]string{"Large Cap Fund": "nifty-50"}, s2_scoring.DefaultPolicy(), 2, logger.Nop())

	return NewOrchestrator(gate, calc, engine, Repositories{
		Funds:        s.Funds(),
		FundNAVs:     s.FundNAVs(),
		Indices:      s.Indices(),
		IndexHistory: s.IndexHistory(),
		Metrics:      metrics,
		Runs:         s.Runs(),
		Quality:      saver,
	}, cache, 3, logger.Nop())
}

func scoreOf(t *testing.T, scores []contracts.ScoreRecord, id string) contracts.ScoreRecord {
	t.Helper()
	for _, s := range scores {
		if s.FundID == id {
			return s
		}
	}
	t.Fatalf("no score for %s", id)
	return contracts.ScoreRecord{}
}

func TestOrchestrator_Run(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	saver := &recordingSaver{}
	flusher := &countingFlusher{}
	o := newTestOrchestrator(t, s, s.Metrics(), saver, flusher, 0.7)

	result, err := o.Run(ctx, RunConfig{Date: asOf, RunID: "run-1", ConfigHash: "abc123"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, contracts.AllStages(), result.CompletedStages)
	assert.Equal(t, 4, result.Run.Funds)
	assert.Equal(t, 1, result.Run.Indices)

	// S0: D 는 NAV 없음
	require.Len(t, saver.snapshots, 1)
	assert.Equal(t, []string{"D"}, result.QualitySnapshot.StaleFunds)
	assert.True(t, result.QualitySnapshot.Passed)

	// S1
	require.NotNil(t, result.FundReturns["A"].Y1)
	assert.InDelta(t, 20.0, *result.FundReturns["A"].Y1, 0.01)
	require.NotNil(t, result.IndexReturns["nifty-50"].Y1)
	assert.InDelta(t, 10.0, *result.IndexReturns["nifty-50"].Y1, 0.01)
	assert.Nil(t, result.FundReturns["D"].Y1)

	averages, err := s.Metrics().GetCategoryAverages(ctx)
	require.NoError(t, err)
	require.Len(t, averages, 2)
	assert.Equal(t, "Aggressive Hybrid Fund", averages[0].SubCategory)
	assert.Equal(t, "Large Cap Fund", averages[1].SubCategory)
	assert.Equal(t, 3, averages[1].FundCount)

	// S2
	a := scoreOf(t, result.Scores, "A")
	b := scoreOf(t, result.Scores, "B")
	c := scoreOf(t, result.Scores, "C")
	require.True(t, a.IsScored())
	require.True(t, b.IsScored())
	assert.Greater(t, *a.CompositeScore, *b.CompositeScore)
	assert.Equal(t, 100.0, *a.PerformanceScore)
	assert.Equal(t, 0.0, *b.PerformanceScore)
	assert.Equal(t, contracts.ScoreStatusNotApplicable, c.Status)
	assert.Nil(t, c.CompositeScore)

	stored, err := s.Metrics().GetScore(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, a.CompositeScore, stored.CompositeScore)

	run, err := s.Runs().GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.RunID)
	assert.Equal(t, "abc123", run.ConfigHash)
	assert.Equal(t, contracts.RunStatusSucceeded, run.Status)
	assert.Equal(t, 3, run.Scored) // A, B, D
	require.NotNil(t, run.FinishedAt)

	assert.Equal(t, 1, flusher.calls)
}

func TestOrchestrator_Run_GeneratesRunID(t *testing.T) {
	s := seedStore(t)
	o := newTestOrchestrator(t, s, s.Metrics(), nil, nil, 0.7)

	result, err := o.Run(context.Background(), RunConfig{Date: asOf})
	require.NoError(t, err)
	assert.Len(t, result.Run.RunID, 36)
}

func TestOrchestrator_Run_QualityBelowThreshold(t *testing.T) {
	s := seedStore(t)
	o := newTestOrchestrator(t, s, s.Metrics(), nil, nil, 0.99)

	result, err := o.Run(context.Background(), RunConfig{Date: asOf})
	require.NoError(t, err)
	assert.False(t, result.QualitySnapshot.Passed)
	assert.True(t, result.Success)
}

func TestOrchestrator_Run_StorageFailure(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	flusher := &countingFlusher{}
	o := newTestOrchestrator(t, s, failingMetrics{s.Metrics()}, nil, flusher, 0.7)

	result, err := o.Run(ctx, RunConfig{Date: asOf, RunID: "run-fail"})
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, []contracts.Stage{contracts.StageDataQuality}, result.CompletedStages)
	assert.Zero(t, flusher.calls)

	run, err := s.Runs().GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, contracts.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "connection reset")
}

func TestOrchestrator_Run_InvalidHistoryDegrades(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	require.NoError(t, s.FundNAVs().SaveBatch(ctx, "D", []contracts.HistoryPoint{
		{Date: asOf.AddDate(0, 0, -1), Value: 10},
		{Date: asOf, Value: -1},
	}))
	o := newTestOrchestrator(t, s, s.Metrics(), nil, nil, 0.7)

	result, err := o.Run(ctx, RunConfig{Date: asOf})
	require.NoError(t, err)
	d := result.FundReturns["D"]
	assert.Equal(t, 0, d.Available())
	assert.NotNil(t, result.FundReturns["A"].Y1)
}
