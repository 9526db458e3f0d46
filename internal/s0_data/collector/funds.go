package collector

import (
	"context"
	"fmt"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/internal/external/amfi"
)

// Backfill loads the full MFAPI NAV history of every active fund with a scheme code.
// onlyMissing limits the run to funds that have no stored NAVs yet.
func (c *Collector) Backfill(ctx context.Context, cfg Config, onlyMissing bool) ([]FetchResult, error) {
	funds, err := c.repos.Funds.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active funds: %w", err)
	}

	var latest map[string]bool
	if onlyMissing {
		dates, err := c.repos.FundNAVs.GetLatestDates(ctx)
		if err != nil {
			return nil, fmt.Errorf("get latest nav dates: %w", err)
		}
		latest = make(map[string]bool, len(dates))
		for id := range dates {
			latest[id] = true
		}
	}

	targets := make([]*contracts.Fund, 0, len(funds))
	for _, f := range funds {
		if !f.HasSchemeCode() || latest[f.ID] {
			continue
		}
		targets = append(targets, f)
	}

	c.logger.WithFields(map[string]interface{}{
		"fund_count":   len(targets),
		"only_missing": onlyMissing,
		"workers":      cfg.workers(),
	}).Info("Starting NAV backfill")

	results := runPool(ctx, targets, cfg.workers(), c.backfillFund, func(f *contracts.Fund) string { return f.ID })

	c.logSummary("NAV backfill completed", results)
	return results, nil
}

// backfillFund fetches and stores one fund's history
func (c *Collector) backfillFund(ctx context.Context, workerID int, f *contracts.Fund) FetchResult {
	points, err := c.src.History.FetchHistory(ctx, f.SchemeCode)
	if err != nil {
		c.logger.WithError(err).WithFields(map[string]interface{}{
			"worker":      workerID,
			"fund_id":     f.ID,
			"scheme_code": f.SchemeCode,
		}).Error("Failed to fetch NAV history")
		return FetchResult{ID: f.ID, Error: err}
	}
	if len(points) == 0 {
		return FetchResult{ID: f.ID, Skipped: true}
	}

	if err := c.repos.FundNAVs.SaveBatch(ctx, f.ID, points); err != nil {
		c.logger.WithError(err).WithFields(map[string]interface{}{
			"worker":  workerID,
			"fund_id": f.ID,
		}).Error("Failed to save NAV history")
		return FetchResult{ID: f.ID, PointCount: len(points), Error: err}
	}

	c.logger.WithFields(map[string]interface{}{
		"worker":  workerID,
		"fund_id": f.ID,
		"count":   len(points),
	}).Debug("Backfilled NAV history")

	return FetchResult{ID: f.ID, PointCount: len(points)}
}

// DailySyncResult summarizes an AMFI daily sync
type DailySyncResult struct {
	Checked   int
	Appended  int
	Unchanged int
	Missing   int // AMFI 파일에 없음
	Failed    int
}

// SyncFundNAVs appends the AMFI daily NAV to every active fund whose stored
// series is older than the published date. Funds are matched by growth ISIN,
// then by scheme code. A fund matched by ISIN learns its scheme code.
func (c *Collector) SyncFundNAVs(ctx context.Context) (*DailySyncResult, error) {
	records, err := c.src.Daily.FetchLatestNAVs(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch amfi navs: %w", err)
	}
	byISIN := amfi.ByISIN(records)
	byCode := make(map[string]amfi.NAVRecord, len(records))
	for _, r := range records {
		byCode[r.SchemeCode] = r
	}

	funds, err := c.repos.Funds.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active funds: %w", err)
	}
	latest, err := c.repos.FundNAVs.GetLatestDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("get latest nav dates: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"records": len(records),
		"funds":   len(funds),
	}).Info("Starting daily NAV sync")

	result := &DailySyncResult{}
	for _, f := range funds {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Checked++

		rec, ok := byISIN[f.ID]
		if !ok && f.HasSchemeCode() {
			rec, ok = byCode[f.SchemeCode]
		}
		if !ok {
			result.Missing++
			continue
		}

		if !f.HasSchemeCode() && rec.SchemeCode != "" {
			f.SchemeCode = rec.SchemeCode
			f.UpdatedAt = c.now()
			if err := c.repos.Funds.Save(ctx, f); err != nil {
				c.logger.WithError(err).WithField("fund_id", f.ID).Warn("Failed to store scheme code")
			}
		}

		date := contracts.CalendarDate(rec.Date)
		if last, ok := latest[f.ID]; ok && !date.After(last) {
			result.Unchanged++
			continue
		}

		point := contracts.HistoryPoint{Date: date, Value: rec.NAV}
		if err := c.repos.FundNAVs.SaveBatch(ctx, f.ID, []contracts.HistoryPoint{point}); err != nil {
			c.logger.WithError(err).WithField("fund_id", f.ID).Error("Failed to append NAV")
			result.Failed++
			continue
		}
		result.Appended++
	}

	c.logger.WithFields(map[string]interface{}{
		"checked":   result.Checked,
		"appended":  result.Appended,
		"unchanged": result.Unchanged,
		"missing":   result.Missing,
		"failed":    result.Failed,
	}).Info("Daily NAV sync completed")

	return result, nil
}
