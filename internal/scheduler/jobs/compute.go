package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/mfatlas/internal/pipeline"
	"github.com/wonny/mfatlas/pkg/logger"
)

// PipelineRunner runs the S0 → S1 → S2 pipeline
type PipelineRunner interface {
	Run(ctx context.Context, config pipeline.RunConfig) (*pipeline.RunResult, error)
}

// ComputeJob recomputes returns and scores once the day's NAVs are in
type ComputeJob struct {
	runner     PipelineRunner
	configHash string
	schedule   string
	location   *time.Location
	logger     *logger.Logger
	now        func() time.Time
}

// NewComputeJob creates a new compute job.
// configHash is stamped on every run it starts.
func NewComputeJob(runner PipelineRunner, configHash, schedule string, loc *time.Location, log *logger.Logger) *ComputeJob {
	if loc == nil {
		loc = time.Local
	}
	return &ComputeJob{
		runner:     runner,
		configHash: configHash,
		schedule:   schedule,
		location:   loc,
		logger:     log.WithField("job", "compute"),
		now:        time.Now,
	}
}

// Name returns the job name
func (j *ComputeJob) Name() string {
	return "compute"
}

// Schedule returns the cron schedule
func (j *ComputeJob) Schedule() string {
	return j.schedule
}

// Run executes one pipeline run dated today in the configured timezone
func (j *ComputeJob) Run(ctx context.Context) error {
	now := j.now().In(j.location)
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	j.logger.WithField("date", date.Format("2006-01-02")).Info("Starting compute run")

	result, err := j.runner.Run(ctx, pipeline.RunConfig{
		Date:       date,
		ConfigHash: j.configHash,
	})
	if err != nil {
		return fmt.Errorf("compute run: %w", err)
	}

	j.logger.WithRun(result.Run.RunID).WithFields(map[string]interface{}{
		"funds":    result.Run.Funds,
		"indices":  result.Run.Indices,
		"scored":   result.Run.Scored,
		"duration": result.Duration,
	}).Info("Compute run completed")
	return nil
}
