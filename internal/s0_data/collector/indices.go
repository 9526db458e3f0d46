package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/mfatlas/internal/contracts"
)

// syncBufferDays re-reads a few days before the latest stored close
const syncBufferDays = 3

// SyncCatalogue upserts the benchmark index catalogue
func (c *Collector) SyncCatalogue(ctx context.Context, indices []*contracts.Index) error {
	for _, idx := range indices {
		if err := c.repos.Indices.Save(ctx, idx); err != nil {
			return fmt.Errorf("save index %s: %w", idx.ID, err)
		}
	}
	c.logger.WithField("count", len(indices)).Info("Index catalogue synced")
	return nil
}

// SyncIndices appends new daily closes for every catalogued index.
// An index without stored closes is skipped; it must be seeded first.
func (c *Collector) SyncIndices(ctx context.Context, cfg Config) ([]FetchResult, error) {
	indices, err := c.repos.Indices.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get indices: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"index_count": len(indices),
		"workers":     cfg.workers(),
	}).Info("Starting index sync")

	results := runPool(ctx, indices, cfg.workers(), c.syncIndex, func(idx *contracts.Index) string { return idx.ID })

	c.logSummary("Index sync completed", results)
	return results, nil
}

func (c *Collector) syncIndex(ctx context.Context, workerID int, idx *contracts.Index) FetchResult {
	if idx.YahooSymbol == "" {
		return FetchResult{ID: idx.ID, Skipped: true}
	}

	latest, err := c.repos.IndexHistory.GetLatest(ctx, idx.ID)
	if errors.Is(err, contracts.ErrNotFound) {
		c.logger.WithField("index_id", idx.ID).Warn("No stored closes, seed the index first")
		return FetchResult{ID: idx.ID, Skipped: true}
	}
	if err != nil {
		return FetchResult{ID: idx.ID, Error: fmt.Errorf("latest close: %w", err)}
	}

	since := latest.Date.AddDate(0, 0, -syncBufferDays)
	points, err := c.src.Index.FetchHistory(ctx, idx.YahooSymbol, since)
	if err != nil {
		c.logger.WithError(err).WithFields(map[string]interface{}{
			"worker":   workerID,
			"index_id": idx.ID,
			"symbol":   idx.YahooSymbol,
		}).Error("Failed to fetch index history")
		return FetchResult{ID: idx.ID, Error: err}
	}

	// 저장된 최신일 이후만 추가
	fresh := make([]contracts.HistoryPoint, 0, len(points))
	for _, p := range points {
		if contracts.CalendarDate(p.Date).After(latest.Date) && p.Value > 0 {
			fresh = append(fresh, p)
		}
	}
	if len(fresh) == 0 {
		c.logger.WithField("index_id", idx.ID).Debug("Index already up to date")
		return FetchResult{ID: idx.ID}
	}

	if err := c.repos.IndexHistory.SaveBatch(ctx, idx.ID, fresh); err != nil {
		return FetchResult{ID: idx.ID, Error: fmt.Errorf("save closes: %w", err)}
	}

	c.logger.WithFields(map[string]interface{}{
		"worker":   workerID,
		"index_id": idx.ID,
		"added":    len(fresh),
	}).Info("Appended index closes")

	return FetchResult{ID: idx.ID, PointCount: len(fresh)}
}

// SeedIndex stores a full close history for a catalogued index (e.g. an Investing.com export)
func (c *Collector) SeedIndex(ctx context.Context, indexID string, points []contracts.HistoryPoint) (int, error) {
	indices, err := c.repos.Indices.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("get indices: %w", err)
	}
	known := false
	for _, idx := range indices {
		if idx.ID == indexID {
			known = true
			break
		}
	}
	if !known {
		return 0, fmt.Errorf("index %s: %w", indexID, contracts.ErrNotFound)
	}
	if len(points) == 0 {
		return 0, fmt.Errorf("index %s: %w", indexID, contracts.ErrEmptyHistory)
	}

	if err := c.repos.IndexHistory.SaveBatch(ctx, indexID, points); err != nil {
		return 0, fmt.Errorf("save closes: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"index_id": indexID,
		"count":    len(points),
	}).Info("Index seeded")
	return len(points), nil
}
