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

// seriesTable names the columns of one time-series table
type seriesTable struct {
	name     string
	idCol    string
	dateCol  string
	valueCol string
}

var (
	fundNAVTable      = seriesTable{name: "fund_nav", idCol: "fund_id", dateCol: "nav_date", valueCol: "nav"}
	indexHistoryTable = seriesTable{name: "index_history", idCol: "index_id", dateCol: "close_date", valueCol: "close"}
)

// NAVRepository implements contracts.NAVRepository for one series table.
// Fund NAVs and index closes share the implementation.
// ⭐ SSOT: 시계열 저장소는 여기서만
type NAVRepository struct {
	pool  *pgxpool.Pool
	table seriesTable
}

// NewFundNAVRepository stores fund NAVs (fund_nav)
func NewFundNAVRepository(pool *pgxpool.Pool) *NAVRepository {
	return &NAVRepository{pool: pool, table: fundNAVTable}
}

// NewIndexHistoryRepository stores index closes (index_history)
func NewIndexHistoryRepository(pool *pgxpool.Pool) *NAVRepository {
	return &NAVRepository{pool: pool, table: indexHistoryTable}
}

func (r *NAVRepository) queryPoints(ctx context.Context, query string, args ...interface{}) ([]contracts.HistoryPoint, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.table.name, err)
	}
	defer rows.Close()

	var points []contracts.HistoryPoint
	for rows.Next() {
		var p contracts.HistoryPoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table.name, err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetHistory returns the full series oldest first
func (r *NAVRepository) GetHistory(ctx context.Context, id string) ([]contracts.HistoryPoint, error) {
	t := r.table
	query := fmt.Sprintf(`
		SELECT %s, %s::float8
		FROM %s
		WHERE %s = $1
		ORDER BY %s ASC
	`, t.dateCol, t.valueCol, t.name, t.idCol, t.dateCol)

	return r.queryPoints(ctx, query, id)
}

// GetRange returns points with from <= date <= to, oldest first
func (r *NAVRepository) GetRange(ctx context.Context, id string, from, to time.Time) ([]contracts.HistoryPoint, error) {
	t := r.table
	query := fmt.Sprintf(`
		SELECT %s, %s::float8
		FROM %s
		WHERE %s = $1 AND %s BETWEEN $2 AND $3
		ORDER BY %s ASC
	`, t.dateCol, t.valueCol, t.name, t.idCol, t.dateCol, t.dateCol)

	return r.queryPoints(ctx, query, id, from, to)
}

// GetLatest returns the newest point, contracts.ErrNotFound when the series is empty
func (r *NAVRepository) GetLatest(ctx context.Context, id string) (*contracts.HistoryPoint, error) {
	t := r.table
	query := fmt.Sprintf(`
		SELECT %s, %s::float8
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC
		LIMIT 1
	`, t.dateCol, t.valueCol, t.name, t.idCol, t.dateCol)

	var p contracts.HistoryPoint
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.Date, &p.Value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", r.table.name, id, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get latest %s %s: %w", r.table.name, id, err)
	}
	return &p, nil
}

// GetLatestDates returns the newest date per series id
func (r *NAVRepository) GetLatestDates(ctx context.Context) (map[string]time.Time, error) {
	t := r.table
	query := fmt.Sprintf(`SELECT %s, MAX(%s) FROM %s GROUP BY %s`, t.idCol, t.dateCol, t.name, t.idCol)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query latest dates: %w", err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var (
			id   string
			date time.Time
		)
		if err := rows.Scan(&id, &date); err != nil {
			return nil, fmt.Errorf("scan latest date: %w", err)
		}
		out[id] = date
	}
	return out, rows.Err()
}

// SaveBatch upserts points for one series in a single transaction
func (r *NAVRepository) SaveBatch(ctx context.Context, id string, points []contracts.HistoryPoint) error {
	if len(points) == 0 {
		return nil
	}

	t := r.table
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, $3)
		ON CONFLICT (%s, %s) DO UPDATE SET %s = EXCLUDED.%s
	`, t.name, t.idCol, t.dateCol, t.valueCol, t.idCol, t.dateCol, t.valueCol, t.valueCol)

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(query, id, contracts.CalendarDate(p.Date), p.Value)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save %d %s rows for %s: %w", len(points), t.name, id, err)
		}
		return nil
	})
}
