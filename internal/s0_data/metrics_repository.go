package s0_data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/mfatlas/internal/contracts"
)

// MetricsRepository implements contracts.MetricsRepository.
// Each table holds only the latest run's rows.
// ⭐ SSOT: 계산 결과 저장소는 여기서만
type MetricsRepository struct {
	pool *pgxpool.Pool
}

// NewMetricsRepository creates a new metrics repository
func NewMetricsRepository(pool *pgxpool.Pool) *MetricsRepository {
	return &MetricsRepository{pool: pool}
}

// returnColumns lists return_<window> columns in contracts.AllWindows order
func returnColumns() []string {
	cols := make([]string, len(contracts.AllWindows))
	for i, w := range contracts.AllWindows {
		cols[i] = "return_" + string(w)
	}
	return cols
}

func returnValues(r *contracts.TrailingReturns) []interface{} {
	vals := make([]interface{}, len(contracts.AllWindows))
	for i, w := range contracts.AllWindows {
		vals[i] = r.Get(w)
	}
	return vals
}

// returnTargets returns scan destinations that fill r
func returnTargets(r *contracts.TrailingReturns) ([]interface{}, func()) {
	slots := make([]*float64, len(contracts.AllWindows))
	targets := make([]interface{}, len(slots))
	for i := range slots {
		targets[i] = &slots[i]
	}
	return targets, func() {
		for i, w := range contracts.AllWindows {
			r.Set(w, slots[i])
		}
	}
}

// upsertReturnsQuery builds the upsert for fund_returns / index_returns / category_averages
func upsertReturnsQuery(table, keyCol string, extraCols ...string) string {
	cols := append([]string{keyCol, "run_id"}, extraCols...)
	cols = append(cols, returnColumns()...)

	placeholders := make([]string, len(cols))
	updates := make([]string, 0, len(cols))
	for i, c := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if c != keyCol {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
	}
	updates = append(updates, "updated_at = NOW()")

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "), keyCol, strings.Join(updates, ", "),
	)
}

// replaceRun writes batch and drops rows left by earlier runs in one transaction,
// so an entity missing from this run no longer reads as current
func (r *MetricsRepository) replaceRun(ctx context.Context, table, runID string, batch *pgx.Batch) error {
	batch.Queue(fmt.Sprintf("DELETE FROM %s WHERE run_id <> $1", table), runID)
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save %s: %w", table, err)
		}
		return nil
	})
}

func (r *MetricsRepository) saveReturns(ctx context.Context, table, keyCol, runID string, returns map[string]contracts.TrailingReturns) error {
	query := upsertReturnsQuery(table, keyCol)

	batch := &pgx.Batch{}
	for id, ret := range returns {
		ret := ret
		args := append([]interface{}{id, runID}, returnValues(&ret)...)
		batch.Queue(query, args...)
	}
	return r.replaceRun(ctx, table, runID, batch)
}

// SaveFundReturns replaces trailing returns per fund
func (r *MetricsRepository) SaveFundReturns(ctx context.Context, runID string, returns map[string]contracts.TrailingReturns) error {
	return r.saveReturns(ctx, "fund_returns", "fund_id", runID, returns)
}

// SaveIndexReturns replaces trailing returns per index
func (r *MetricsRepository) SaveIndexReturns(ctx context.Context, runID string, returns map[string]contracts.TrailingReturns) error {
	return r.saveReturns(ctx, "index_returns", "index_id", runID, returns)
}

// SaveCategoryAverages replaces per sub-category averages
func (r *MetricsRepository) SaveCategoryAverages(ctx context.Context, runID string, averages []contracts.CategoryAverage) error {
	query := upsertReturnsQuery("category_averages", "sub_category", "fund_count")

	batch := &pgx.Batch{}
	for i := range averages {
		a := &averages[i]
		args := append([]interface{}{a.SubCategory, runID, a.FundCount}, returnValues(&a.Returns)...)
		batch.Queue(query, args...)
	}
	return r.replaceRun(ctx, "category_averages", runID, batch)
}

const upsertScore = `
	INSERT INTO fund_scores (
		fund_id, run_id, benchmark_id, status,
		performance_score, rating_score, aum_score, reputation_score,
		alpha_1y, alpha_3y, alpha_5y, composite_score
	) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (fund_id) DO UPDATE SET
		run_id = EXCLUDED.run_id,
		benchmark_id = EXCLUDED.benchmark_id,
		status = EXCLUDED.status,
		performance_score = EXCLUDED.performance_score,
		rating_score = EXCLUDED.rating_score,
		aum_score = EXCLUDED.aum_score,
		reputation_score = EXCLUDED.reputation_score,
		alpha_1y = EXCLUDED.alpha_1y,
		alpha_3y = EXCLUDED.alpha_3y,
		alpha_5y = EXCLUDED.alpha_5y,
		composite_score = EXCLUDED.composite_score,
		updated_at = NOW()
`

// SaveScores replaces score records
func (r *MetricsRepository) SaveScores(ctx context.Context, runID string, scores []contracts.ScoreRecord) error {
	batch := &pgx.Batch{}
	for _, s := range scores {
		batch.Queue(upsertScore,
			s.FundID, runID, s.BenchmarkID, string(s.Status),
			s.PerformanceScore, s.RatingScore, s.AUMScore, s.ReputationScore,
			s.Alpha1Y, s.Alpha3Y, s.Alpha5Y, s.CompositeScore,
		)
	}
	return r.replaceRun(ctx, "fund_scores", runID, batch)
}

// GetFundReturns returns the latest stored returns of a fund
func (r *MetricsRepository) GetFundReturns(ctx context.Context, fundID string) (*contracts.TrailingReturns, error) {
	query := fmt.Sprintf(`SELECT %s FROM fund_returns WHERE fund_id = $1`, strings.Join(returnColumns(), ", "))

	var ret contracts.TrailingReturns
	targets, fill := returnTargets(&ret)
	err := r.pool.QueryRow(ctx, query, fundID).Scan(targets...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("returns for %s: %w", fundID, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get fund returns %s: %w", fundID, err)
	}
	fill()
	return &ret, nil
}

// GetIndexReturns returns stored returns for every index
func (r *MetricsRepository) GetIndexReturns(ctx context.Context) (map[string]contracts.TrailingReturns, error) {
	query := fmt.Sprintf(`SELECT index_id, %s FROM index_returns`, strings.Join(returnColumns(), ", "))

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query index returns: %w", err)
	}
	defer rows.Close()

	out := make(map[string]contracts.TrailingReturns)
	for rows.Next() {
		var (
			id  string
			ret contracts.TrailingReturns
		)
		targets, fill := returnTargets(&ret)
		if err := rows.Scan(append([]interface{}{&id}, targets...)...); err != nil {
			return nil, fmt.Errorf("scan index returns: %w", err)
		}
		fill()
		out[id] = ret
	}
	return out, rows.Err()
}

const selectScore = `
	SELECT fund_id, benchmark_id, status,
		performance_score, rating_score, aum_score, reputation_score,
		alpha_1y, alpha_3y, alpha_5y, composite_score
	FROM fund_scores
`

func scanScore(row pgx.Row) (*contracts.ScoreRecord, error) {
	var (
		s         contracts.ScoreRecord
		status    string
		benchmark *string
	)
	if err := row.Scan(
		&s.FundID, &benchmark, &status,
		&s.PerformanceScore, &s.RatingScore, &s.AUMScore, &s.ReputationScore,
		&s.Alpha1Y, &s.Alpha3Y, &s.Alpha5Y, &s.CompositeScore,
	); err != nil {
		return nil, err
	}

	s.Status = contracts.ScoreStatus(status)
	if benchmark != nil {
		s.BenchmarkID = *benchmark
	}
	return &s, nil
}

// GetScore returns the latest score record of a fund
func (r *MetricsRepository) GetScore(ctx context.Context, fundID string) (*contracts.ScoreRecord, error) {
	s, err := scanScore(r.pool.QueryRow(ctx, selectScore+" WHERE fund_id = $1", fundID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("score for %s: %w", fundID, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get score %s: %w", fundID, err)
	}
	return s, nil
}

// GetScores returns every stored score keyed by fund id
func (r *MetricsRepository) GetScores(ctx context.Context) (map[string]contracts.ScoreRecord, error) {
	rows, err := r.pool.Query(ctx, selectScore)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	out := make(map[string]contracts.ScoreRecord)
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		out[s.FundID] = *s
	}
	return out, rows.Err()
}

// GetCategoryAverages returns every sub-category average ordered by name
func (r *MetricsRepository) GetCategoryAverages(ctx context.Context) ([]contracts.CategoryAverage, error) {
	query := fmt.Sprintf(`
		SELECT sub_category, fund_count, %s
		FROM category_averages
		ORDER BY sub_category
	`, strings.Join(returnColumns(), ", "))

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query category averages: %w", err)
	}
	defer rows.Close()

	var out []contracts.CategoryAverage
	for rows.Next() {
		var a contracts.CategoryAverage
		targets, fill := returnTargets(&a.Returns)
		if err := rows.Scan(append([]interface{}{&a.SubCategory, &a.FundCount}, targets...)...); err != nil {
			return nil, fmt.Errorf("scan category average: %w", err)
		}
		fill()
		out = append(out, a)
	}
	return out, rows.Err()
}
