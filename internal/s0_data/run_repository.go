package s0_data

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/mfatlas/internal/contracts"
)

// RunRepository implements contracts.RunRepository
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new pipeline run repository
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// Start records a new running pipeline run
func (r *RunRepository) Start(ctx context.Context, run *contracts.PipelineRun) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO pipeline_runs (run_id, config_hash, as_of, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`, run.RunID, run.ConfigHash, contracts.CalendarDate(run.AsOf), run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("start run %s: %w", run.RunID, err)
	}
	return nil
}

// Finish stores the final status and counters of a run
func (r *RunRepository) Finish(ctx context.Context, run *contracts.PipelineRun) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE pipeline_runs SET
			status = $2, funds = $3, indices = $4, scored = $5,
			error = NULLIF($6, ''), finished_at = $7
		WHERE run_id = $1
	`, run.RunID, run.Status, run.Funds, run.Indices, run.Scored, run.Error, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", run.RunID, err)
	}
	return nil
}

// GetLatest returns the most recently started run
func (r *RunRepository) GetLatest(ctx context.Context) (*contracts.PipelineRun, error) {
	var (
		run     contracts.PipelineRun
		errText *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT run_id::text, config_hash, as_of, status, funds, indices, scored, error, started_at, finished_at
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(
		&run.RunID, &run.ConfigHash, &run.AsOf, &run.Status,
		&run.Funds, &run.Indices, &run.Scored, &errText,
		&run.StartedAt, &run.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("pipeline run: %w", contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get latest run: %w", err)
	}
	if errText != nil {
		run.Error = *errText
	}
	return &run, nil
}
