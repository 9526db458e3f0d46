package s0_data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/mfatlas/internal/contracts"
)

// FundRepository implements contracts.FundRepository
// ⭐ SSOT: 펀드 메타데이터 저장소는 여기서만
type FundRepository struct {
	pool *pgxpool.Pool
}

// NewFundRepository creates a new fund repository
func NewFundRepository(pool *pgxpool.Pool) *FundRepository {
	return &FundRepository{pool: pool}
}

const fundColumns = `
	id, name, asset_class, sub_category, amc,
	COALESCE(kuvera_code, ''), COALESCE(scheme_code, ''), COALESCE(rating, ''),
	aum_crore, inception_date, active, updated_at
`

func scanFund(row pgx.Row) (*contracts.Fund, error) {
	var (
		f         contracts.Fund
		inception *time.Time
	)
	err := row.Scan(
		&f.ID, &f.Name, &f.AssetClass, &f.SubCategory, &f.AMC,
		&f.KuveraCode, &f.SchemeCode, &f.Rating,
		&f.AUMCrore, &inception, &f.Active, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if inception != nil {
		f.InceptionDate = *inception
	}
	return &f, nil
}

// GetByID retrieves a fund by ISIN
func (r *FundRepository) GetByID(ctx context.Context, id string) (*contracts.Fund, error) {
	query := `SELECT ` + fundColumns + ` FROM funds WHERE id = $1`

	f, err := scanFund(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("fund %s: %w", id, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get fund %s: %w", id, err)
	}
	return f, nil
}

// GetActive retrieves every active fund ordered by sub-category and name
func (r *FundRepository) GetActive(ctx context.Context) ([]*contracts.Fund, error) {
	query := `
		SELECT ` + fundColumns + `
		FROM funds
		WHERE active = TRUE
		ORDER BY sub_category, name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active funds: %w", err)
	}
	defer rows.Close()

	var funds []*contracts.Fund
	for rows.Next() {
		f, err := scanFund(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fund: %w", err)
		}
		funds = append(funds, f)
	}
	return funds, rows.Err()
}

const upsertFund = `
	INSERT INTO funds (
		id, name, asset_class, sub_category, amc, kuvera_code, scheme_code,
		rating, aum_crore, inception_date, active, updated_at
	) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, $10, $11, NOW())
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		asset_class = EXCLUDED.asset_class,
		sub_category = EXCLUDED.sub_category,
		amc = EXCLUDED.amc,
		kuvera_code = COALESCE(EXCLUDED.kuvera_code, funds.kuvera_code),
		scheme_code = COALESCE(EXCLUDED.scheme_code, funds.scheme_code),
		rating = EXCLUDED.rating,
		aum_crore = EXCLUDED.aum_crore,
		inception_date = COALESCE(EXCLUDED.inception_date, funds.inception_date),
		active = EXCLUDED.active,
		updated_at = NOW()
`

func fundArgs(f *contracts.Fund) []interface{} {
	var inception *time.Time
	if !f.InceptionDate.IsZero() {
		d := contracts.CalendarDate(f.InceptionDate)
		inception = &d
	}
	return []interface{}{
		f.ID, f.Name, f.AssetClass, f.SubCategory, f.AMC, f.KuveraCode, f.SchemeCode,
		f.Rating, f.AUMCrore, inception, f.Active,
	}
}

// Save upserts a single fund
func (r *FundRepository) Save(ctx context.Context, fund *contracts.Fund) error {
	if _, err := r.pool.Exec(ctx, upsertFund, fundArgs(fund)...); err != nil {
		return fmt.Errorf("save fund %s: %w", fund.ID, err)
	}
	return nil
}

// SaveBatch upserts funds in one transaction
func (r *FundRepository) SaveBatch(ctx context.Context, funds []*contracts.Fund) error {
	if len(funds) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, f := range funds {
		batch.Queue(upsertFund, fundArgs(f)...)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save %d funds: %w", len(funds), err)
		}
		return nil
	})
}

// Deactivate marks funds missing from the latest universe refresh as inactive
func (r *FundRepository) Deactivate(ctx context.Context, keepIDs []string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE funds SET active = FALSE, updated_at = NOW()
		WHERE active = TRUE AND NOT (id = ANY($1))
	`, keepIDs)
	if err != nil {
		return 0, fmt.Errorf("deactivate funds: %w", err)
	}
	return tag.RowsAffected(), nil
}
