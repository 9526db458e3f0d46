package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/mfatlas/internal/external/kuvera"
	"github.com/wonny/mfatlas/internal/s0_data/collector"
	"github.com/wonny/mfatlas/pkg/logger"
)

// UniverseRefresher rebuilds the fund universe and fills new histories
type UniverseRefresher interface {
	RefreshUniverse(ctx context.Context, filter kuvera.Filter, cfg collector.Config) (*collector.UniverseResult, error)
	Backfill(ctx context.Context, cfg collector.Config, onlyMissing bool) ([]collector.FetchResult, error)
}

// UniverseRefreshJob refreshes the universe weekly and backfills
// NAV history for funds that joined it
type UniverseRefreshJob struct {
	refresher UniverseRefresher
	filter    kuvera.Filter
	config    collector.Config
	schedule  string
	logger    *logger.Logger
}

// NewUniverseRefreshJob creates a new universe refresh job
func NewUniverseRefreshJob(refresher UniverseRefresher, filter kuvera.Filter, config collector.Config, schedule string, log *logger.Logger) *UniverseRefreshJob {
	return &UniverseRefreshJob{
		refresher: refresher,
		filter:    filter,
		config:    config,
		schedule:  schedule,
		logger:    log.WithField("job", "universe_refresh"),
	}
}

// Name returns the job name
func (j *UniverseRefreshJob) Name() string {
	return "universe_refresh"
}

// Schedule returns the cron schedule
func (j *UniverseRefreshJob) Schedule() string {
	return j.schedule
}

// Run executes the refresh then backfills missing histories
func (j *UniverseRefreshJob) Run(ctx context.Context) error {
	j.logger.Info("Starting universe refresh")

	result, err := j.refresher.RefreshUniverse(ctx, j.filter, j.config)
	if err != nil {
		return fmt.Errorf("universe refresh: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"listed":      result.Listed,
		"saved":       result.Saved,
		"mapped":      result.Mapped,
		"failed":      result.Failed,
		"deactivated": result.Deactivated,
	}).Info("Universe refreshed")

	// 신규 편입 펀드만 백필
	results, err := j.refresher.Backfill(ctx, j.config, true)
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}

	summary := collector.Summarize(results)
	j.logger.WithFields(map[string]interface{}{
		"success": summary.Success,
		"failed":  summary.Failed,
		"points":  summary.Points,
	}).Info("Backfill completed")

	return nil
}
