package s0_data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/mfatlas/internal/contracts"
)

// IndexRepository implements contracts.IndexRepository
type IndexRepository struct {
	pool *pgxpool.Pool
}

// NewIndexRepository creates a new index repository
func NewIndexRepository(pool *pgxpool.Pool) *IndexRepository {
	return &IndexRepository{pool: pool}
}

// GetAll returns every index ordered by id
func (r *IndexRepository) GetAll(ctx context.Context) ([]*contracts.Index, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, yahoo_symbol, sub_categories
		FROM indices
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query indices: %w", err)
	}
	defer rows.Close()

	var indices []*contracts.Index
	for rows.Next() {
		var idx contracts.Index
		if err := rows.Scan(&idx.ID, &idx.Name, &idx.YahooSymbol, &idx.SubCategories); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		indices = append(indices, &idx)
	}
	return indices, rows.Err()
}

// Save upserts an index definition
func (r *IndexRepository) Save(ctx context.Context, index *contracts.Index) error {
	subs := index.SubCategories
	if subs == nil {
		subs = []string{}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO indices (id, name, yahoo_symbol, sub_categories)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			yahoo_symbol = EXCLUDED.yahoo_symbol,
			sub_categories = EXCLUDED.sub_categories
	`, index.ID, index.Name, index.YahooSymbol, subs)
	if err != nil {
		return fmt.Errorf("save index %s: %w", index.ID, err)
	}
	return nil
}
