package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/internal/external/kuvera"
	"github.com/wonny/mfatlas/internal/pipeline"
	"github.com/wonny/mfatlas/internal/s0_data/collector"
	"github.com/wonny/mfatlas/internal/scheduler"
	"github.com/wonny/mfatlas/pkg/logger"
)

// compile-time checks
var (
	_ scheduler.Job = (*FundNAVSyncJob)(nil)
	_ scheduler.Job = (*IndexSyncJob)(nil)
	_ scheduler.Job = (*ComputeJob)(nil)
	_ scheduler.Job = (*UniverseRefreshJob)(nil)
)

type fakeNAVSyncer struct {
	result *collector.DailySyncResult
	err    error
}

func (f fakeNAVSyncer) SyncFundNAVs(context.Context) (*collector.DailySyncResult, error) {
	return f.result, f.err
}

func TestFundNAVSyncJob_Run(t *testing.T) {
	tests := []struct {
		name    string
		syncer  fakeNAVSyncer
		wantErr bool
	}{
		{"appended", fakeNAVSyncer{result: &collector.DailySyncResult{Checked: 3, Appended: 2, Failed: 1}}, false},
		{"nothing to check", fakeNAVSyncer{result: &collector.DailySyncResult{}}, false},
		{"every fund failed", fakeNAVSyncer{result: &collector.DailySyncResult{Checked: 2, Failed: 2}}, true},
		{"fetch error", fakeNAVSyncer{err: errors.New("amfi down")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewFundNAVSyncJob(tt.syncer, "0 30 23 * * 1-5", logger.Nop())
			assert.Equal(t, "fund_nav_sync", job.Name())
			assert.Equal(t, "0 30 23 * * 1-5", job.Schedule())

			err := job.Run(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type fakeIndexSyncer struct {
	results []collector.FetchResult
	cfg     collector.Config
}

func (f *fakeIndexSyncer) SyncIndices(_ context.Context, cfg collector.Config) ([]collector.FetchResult, error) {
	f.cfg = cfg
	return f.results, nil
}

func TestIndexSyncJob_Run(t *testing.T) {
	boom := errors.New("yahoo 429")

	tests := []struct {
		name    string
		results []collector.FetchResult
		wantErr bool
	}{
		{"partial failure", []collector.FetchResult{{ID: "nifty-50", PointCount: 1}, {ID: "nifty-midcap-150", Error: boom}}, false},
		{"all skipped", []collector.FetchResult{{ID: "nifty-50", Skipped: true}}, false},
		{"all failed", []collector.FetchResult{{ID: "nifty-50", Error: boom}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &fakeIndexSyncer{results: tt.results}
			job := NewIndexSyncJob(syncer, collector.Config{Workers: 2}, "0 0 18 * * 1-5", logger.Nop())

			err := job.Run(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, 2, syncer.cfg.Workers)
		})
	}
}

type fakeRunner struct {
	config pipeline.RunConfig
	err    error
}

func (f *fakeRunner) Run(_ context.Context, config pipeline.RunConfig) (*pipeline.RunResult, error) {
	f.config = config
	if f.err != nil {
		return &pipeline.RunResult{Run: &contracts.PipelineRun{RunID: "r"}}, f.err
	}
	return &pipeline.RunResult{Run: &contracts.PipelineRun{RunID: "r", Funds: 4, Scored: 3}, Success: true}, nil
}

func TestComputeJob_Run(t *testing.T) {
	ist, err := scheduler.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	runner := &fakeRunner{}
	job := NewComputeJob(runner, "abc123", "0 15 0 * * 2-6", ist, logger.Nop())
	// 2026-02-26 19:00 UTC == 2026-02-27 00:30 IST
	job.now = func() time.Time { return time.Date(2026, 2, 26, 19, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC), runner.config.Date)
	assert.Equal(t, "abc123", runner.config.ConfigHash)
	assert.Empty(t, runner.config.RunID)

	runner.err = errors.New("metrics write failed")
	assert.ErrorContains(t, job.Run(context.Background()), "metrics write failed")
}

type fakeRefresher struct {
	refreshErr  error
	backfilled  bool
	onlyMissing bool
}

func (f *fakeRefresher) RefreshUniverse(context.Context, kuvera.Filter, collector.Config) (*collector.UniverseResult, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &collector.UniverseResult{Listed: 10, Saved: 8}, nil
}

func (f *fakeRefresher) Backfill(_ context.Context, _ collector.Config, onlyMissing bool) ([]collector.FetchResult, error) {
	f.backfilled = true
	f.onlyMissing = onlyMissing
	return []collector.FetchResult{{ID: "INF000A", PointCount: 900}}, nil
}

func TestUniverseRefreshJob_Run(t *testing.T) {
	refresher := &fakeRefresher{}
	job := NewUniverseRefreshJob(refresher, kuvera.Filter{}, collector.Config{}, "0 0 6 * * 0", logger.Nop())
	assert.Equal(t, "universe_refresh", job.Name())

	require.NoError(t, job.Run(context.Background()))
	assert.True(t, refresher.backfilled)
	assert.True(t, refresher.onlyMissing)

	failing := &fakeRefresher{refreshErr: errors.New("kuvera down")}
	job = NewUniverseRefreshJob(failing, kuvera.Filter{}, collector.Config{}, "0 0 6 * * 0", logger.Nop())
	assert.Error(t, job.Run(context.Background()))
	assert.False(t, failing.backfilled)
}

func TestJobs_RegisterWithScheduler(t *testing.T) {
	s := scheduler.New(logger.Nop(), scheduler.Options{})
	require.NoError(t, s.AddJob(NewFundNAVSyncJob(fakeNAVSyncer{}, "0 30 23 * * 1-5", logger.Nop())))
	require.NoError(t, s.AddJob(NewIndexSyncJob(&fakeIndexSyncer{}, collector.Config{}, "0 0 18 * * 1-5", logger.Nop())))
	require.NoError(t, s.AddJob(NewComputeJob(&fakeRunner{}, "h", "0 15 0 * * 2-6", nil, logger.Nop())))
	require.NoError(t, s.AddJob(NewUniverseRefreshJob(&fakeRefresher{}, kuvera.Filter{}, collector.Config{}, "0 0 6 * * 0", logger.Nop())))

	assert.Equal(t, []string{"compute", "fund_nav_sync", "index_sync", "universe_refresh"}, s.GetAllJobs())
}
