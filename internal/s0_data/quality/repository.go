package quality

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/mfatlas/internal/contracts"
)

// Repository handles data quality snapshot persistence
// ⭐ SSOT: S0 품질 스냅샷 저장/조회
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new quality repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveSnapshot upserts the snapshot for its date
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *contracts.DataQualitySnapshot) error {
	coverage, err := json.Marshal(snapshot.Coverage)
	if err != nil {
		return fmt.Errorf("marshal coverage: %w", err)
	}

	stale := snapshot.StaleFunds
	if stale == nil {
		stale = []string{}
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO quality_snapshots (
			snapshot_date, total_funds, fresh_funds, total_indices, fresh_indices,
			stale_funds, coverage, quality_score, passed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (snapshot_date) DO UPDATE SET
			total_funds = EXCLUDED.total_funds,
			fresh_funds = EXCLUDED.fresh_funds,
			total_indices = EXCLUDED.total_indices,
			fresh_indices = EXCLUDED.fresh_indices,
			stale_funds = EXCLUDED.stale_funds,
			coverage = EXCLUDED.coverage,
			quality_score = EXCLUDED.quality_score,
			passed = EXCLUDED.passed,
			updated_at = NOW()
	`,
		snapshot.Date,
		snapshot.TotalFunds,
		snapshot.FreshFunds,
		snapshot.TotalIndices,
		snapshot.FreshIndices,
		stale,
		coverage,
		snapshot.QualityScore,
		snapshot.Passed,
	)
	if err != nil {
		return fmt.Errorf("save quality snapshot: %w", err)
	}

	return nil
}

// GetLatest retrieves the most recent quality snapshot
func (r *Repository) GetLatest(ctx context.Context) (*contracts.DataQualitySnapshot, error) {
	var (
		snapshot contracts.DataQualitySnapshot
		coverage []byte
	)

	err := r.pool.QueryRow(ctx, `
		SELECT snapshot_date, total_funds, fresh_funds, total_indices, fresh_indices,
			stale_funds, coverage, quality_score, passed
		FROM quality_snapshots
		ORDER BY snapshot_date DESC
		LIMIT 1
	`).Scan(
		&snapshot.Date,
		&snapshot.TotalFunds,
		&snapshot.FreshFunds,
		&snapshot.TotalIndices,
		&snapshot.FreshIndices,
		&snapshot.StaleFunds,
		&coverage,
		&snapshot.QualityScore,
		&snapshot.Passed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("quality snapshot: %w", contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get latest quality snapshot: %w", err)
	}

	if err := json.Unmarshal(coverage, &snapshot.Coverage); err != nil {
		return nil, fmt.Errorf("unmarshal coverage: %w", err)
	}

	return &snapshot, nil
}
