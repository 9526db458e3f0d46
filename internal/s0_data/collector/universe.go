package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/internal/external/kuvera"
)

// deactivator is implemented by fund stores that can retire funds
// no longer present in the universe
type deactivator interface {
	Deactivate(ctx context.Context, keepIDs []string) (int64, error)
}

// UniverseResult summarizes a universe refresh
type UniverseResult struct {
	Listed      int
	Saved       int
	Mapped      int // MFAPI scheme code 매핑 성공
	Seeded      int
	Failed      int
	Deactivated int64
}

// RefreshUniverse rebuilds the fund universe from the Kuvera list.
//
// Each listed scheme is described individually (detail calls are spaced by
// cfg.DetailDelay), keyed by its growth ISIN and matched to an MFAPI scheme
// code. Funds without a scheme code and without stored NAVs get the list NAV
// as a single point for today so they still appear downstream.
func (c *Collector) RefreshUniverse(ctx context.Context, filter kuvera.Filter, cfg Config) (*UniverseResult, error) {
	listed, err := c.src.Universe.FetchList(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("fetch fund list: %w", err)
	}

	codes, err := c.schemeCodesByISIN(ctx)
	if err != nil {
		// 매핑 없이 진행: 이력 백필만 불가
		c.logger.WithError(err).Warn("Failed to fetch MFAPI scheme list, continuing without scheme codes")
		codes = map[string]string{}
	}

	c.logger.WithFields(map[string]interface{}{
		"listed":   len(listed),
		"mapped":   len(codes),
		"delay_ms": cfg.DetailDelay.Milliseconds(),
	}).Info("Starting universe refresh")

	result := &UniverseResult{Listed: len(listed)}
	funds := make([]*contracts.Fund, 0, len(listed))
	listNAV := make(map[string]float64, len(listed))
	seen := make(map[string]bool, len(listed))

	for i, lf := range listed {
		if i > 0 && cfg.DetailDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(cfg.DetailDelay):
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		details, err := c.src.Universe.FetchDetails(ctx, lf.Code)
		if err != nil {
			c.logger.WithError(err).WithField("kuvera_code", lf.Code).Warn("Failed to fetch fund details")
			result.Failed++
			continue
		}
		if details == nil || details.ISIN == "" {
			c.logger.WithField("kuvera_code", lf.Code).Debug("Fund has no ISIN, skipping")
			result.Failed++
			continue
		}
		if seen[details.ISIN] {
			continue
		}
		seen[details.ISIN] = true

		fund := toFund(lf, details, codes[details.ISIN], c.now())
		if fund.HasSchemeCode() {
			result.Mapped++
		}
		funds = append(funds, fund)
		listNAV[fund.ID] = lf.NAV

		if (i+1)%25 == 0 {
			c.logger.WithFields(map[string]interface{}{
				"processed": i + 1,
				"total":     len(listed),
			}).Debug("Universe refresh progress")
		}
	}

	if err := c.repos.Funds.SaveBatch(ctx, funds); err != nil {
		return nil, fmt.Errorf("save funds: %w", err)
	}
	result.Saved = len(funds)

	// 목록에서 사라진 펀드 비활성화 (빈 결과로 전체를 지우지 않음)
	if d, ok := c.repos.Funds.(deactivator); ok && len(funds) > 0 {
		keep := make([]string, 0, len(funds))
		for _, f := range funds {
			keep = append(keep, f.ID)
		}
		n, err := d.Deactivate(ctx, keep)
		if err != nil {
			return nil, fmt.Errorf("deactivate funds: %w", err)
		}
		result.Deactivated = n
	}

	seeded, err := c.seedListNAVs(ctx, funds, listNAV)
	if err != nil {
		return nil, err
	}
	result.Seeded = seeded

	c.logger.WithFields(map[string]interface{}{
		"saved":       result.Saved,
		"mapped":      result.Mapped,
		"seeded":      result.Seeded,
		"failed":      result.Failed,
		"deactivated": result.Deactivated,
	}).Info("Universe refresh completed")

	return result, nil
}

// schemeCodesByISIN maps growth ISINs to MFAPI scheme codes
func (c *Collector) schemeCodesByISIN(ctx context.Context) (map[string]string, error) {
	schemes, err := c.src.History.FetchSchemes(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(schemes))
	for _, s := range schemes {
		if s.ISINGrowth != "" && s.SchemeCode != "" {
			out[s.ISINGrowth] = string(s.SchemeCode)
		}
	}
	return out, nil
}

// seedListNAVs stores today's list NAV for unmapped funds that have no series yet
func (c *Collector) seedListNAVs(ctx context.Context, funds []*contracts.Fund, listNAV map[string]float64) (int, error) {
	latest, err := c.repos.FundNAVs.GetLatestDates(ctx)
	if err != nil {
		return 0, fmt.Errorf("get latest nav dates: %w", err)
	}

	seeded := 0
	today := c.today()
	for _, f := range funds {
		if f.HasSchemeCode() {
			continue
		}
		if _, ok := latest[f.ID]; ok {
			continue
		}
		nav := listNAV[f.ID]
		if nav <= 0 {
			continue
		}
		point := contracts.HistoryPoint{Date: today, Value: nav}
		if err := c.repos.FundNAVs.SaveBatch(ctx, f.ID, []contracts.HistoryPoint{point}); err != nil {
			return seeded, fmt.Errorf("seed nav %s: %w", f.ID, err)
		}
		seeded++
	}
	return seeded, nil
}

func toFund(lf kuvera.ListedFund, d *kuvera.Details, schemeCode string, now time.Time) *contracts.Fund {
	name := lf.Name
	if name == "" {
		name = d.Name
	}
	amc := lf.FundHouse
	if amc == "" {
		amc = d.FundHouse
	}
	return &contracts.Fund{
		ID:            d.ISIN,
		Name:          name,
		AssetClass:    lf.AssetClass,
		SubCategory:   lf.Category,
		AMC:           amc,
		KuveraCode:    lf.Code,
		SchemeCode:    schemeCode,
		Rating:        d.Rating(),
		AUMCrore:      contracts.Round(d.AUMCrore(), contracts.MoneyPlaces),
		InceptionDate: d.Inception(),
		Active:        true,
		UpdatedAt:     now,
	}
}
