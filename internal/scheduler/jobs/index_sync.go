package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/mfatlas/internal/s0_data/collector"
	"github.com/wonny/mfatlas/pkg/logger"
)

// IndexSyncer appends recent closes to seeded index histories
type IndexSyncer interface {
	SyncIndices(ctx context.Context, cfg collector.Config) ([]collector.FetchResult, error)
}

// IndexSyncJob pulls benchmark closes after market hours
type IndexSyncJob struct {
	syncer   IndexSyncer
	config   collector.Config
	schedule string
	logger   *logger.Logger
}

// NewIndexSyncJob creates a new index sync job
func NewIndexSyncJob(syncer IndexSyncer, config collector.Config, schedule string, log *logger.Logger) *IndexSyncJob {
	return &IndexSyncJob{
		syncer:   syncer,
		config:   config,
		schedule: schedule,
		logger:   log.WithField("job", "index_sync"),
	}
}

// Name returns the job name
func (j *IndexSyncJob) Name() string {
	return "index_sync"
}

// Schedule returns the cron schedule
func (j *IndexSyncJob) Schedule() string {
	return j.schedule
}

// Run executes the index sync
func (j *IndexSyncJob) Run(ctx context.Context) error {
	j.logger.Info("Starting index sync")

	results, err := j.syncer.SyncIndices(ctx, j.config)
	if err != nil {
		return fmt.Errorf("index sync: %w", err)
	}

	summary := collector.Summarize(results)
	j.logger.WithFields(map[string]interface{}{
		"success": summary.Success,
		"failed":  summary.Failed,
		"skipped": summary.Skipped,
		"points":  summary.Points,
	}).Info("Index sync completed")

	// 전부 실패한 경우만 재시도 대상
	if summary.Failed > 0 && summary.Success == 0 {
		return fmt.Errorf("index sync: all %d indices failed", summary.Failed)
	}
	return nil
}
