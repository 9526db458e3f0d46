package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/mfatlas/internal/s0_data/collector"
	"github.com/wonny/mfatlas/pkg/logger"
)

// FundNAVSyncer appends the AMFI daily NAV file to stored fund histories
type FundNAVSyncer interface {
	SyncFundNAVs(ctx context.Context) (*collector.DailySyncResult, error)
}

// FundNAVSyncJob syncs fund NAVs after AMFI publishes the daily file
type FundNAVSyncJob struct {
	syncer   FundNAVSyncer
	schedule string
	logger   *logger.Logger
}

// NewFundNAVSyncJob creates a new fund NAV sync job
func NewFundNAVSyncJob(syncer FundNAVSyncer, schedule string, log *logger.Logger) *FundNAVSyncJob {
	return &FundNAVSyncJob{
		syncer:   syncer,
		schedule: schedule,
		logger:   log.WithField("job", "fund_nav_sync"),
	}
}

// Name returns the job name
func (j *FundNAVSyncJob) Name() string {
	return "fund_nav_sync"
}

// Schedule returns the cron schedule
func (j *FundNAVSyncJob) Schedule() string {
	return j.schedule
}

// Run executes the fund NAV sync.
// Only a fetch failure or a sync where every fund failed is an error.
func (j *FundNAVSyncJob) Run(ctx context.Context) error {
	j.logger.Info("Starting fund NAV sync")

	result, err := j.syncer.SyncFundNAVs(ctx)
	if err != nil {
		return fmt.Errorf("fund nav sync: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"checked":   result.Checked,
		"appended":  result.Appended,
		"unchanged": result.Unchanged,
		"missing":   result.Missing,
		"failed":    result.Failed,
	}).Info("Fund NAV sync completed")

	if result.Checked > 0 && result.Failed == result.Checked {
		return fmt.Errorf("fund nav sync: all %d funds failed", result.Failed)
	}
	return nil
}
