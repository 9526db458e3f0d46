package quality

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/mfatlas/internal/contracts"
)

// Coverage keys
const (
	CoverageFundNAV = "fund_nav"
	CoverageIndex   = "index"
)

// Config holds quality gate thresholds
type Config struct {
	MaxStaleDays    int     `yaml:"max_stale_days"`    // 기준일 대비 허용 지연 (달력일)
	MinQualityScore float64 `yaml:"min_quality_score"` // 0.7
}

// QualityGate reports NAV and index freshness before a compute run.
// Implements contracts.QualityGate.
type QualityGate struct {
	funds     contracts.FundRepository
	fundNAVs  contracts.NAVRepository
	indices   contracts.IndexRepository
	indexHist contracts.NAVRepository
	config    Config
}

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(funds contracts.FundRepository, fundNAVs contracts.NAVRepository,
	indices contracts.IndexRepository, indexHist contracts.NAVRepository, config Config) *QualityGate {
	return &QualityGate{
		funds:     funds,
		fundNAVs:  fundNAVs,
		indices:   indices,
		indexHist: indexHist,
		config:    config,
	}
}

// Check validates data freshness for a given date
// ⭐ SSOT: S0 → S1 품질 검증
func (g *QualityGate) Check(ctx context.Context, date time.Time) (*contracts.DataQualitySnapshot, error) {
	date = contracts.CalendarDate(date)
	cutoff := date.AddDate(0, 0, -g.config.MaxStaleDays)

	snapshot := &contracts.DataQualitySnapshot{
		Date:     date,
		Coverage: make(map[string]float64),
	}

	// 1. 펀드 NAV 신선도
	funds, err := g.funds.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active funds: %w", err)
	}
	navDates, err := g.fundNAVs.GetLatestDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fund NAV dates: %w", err)
	}

	snapshot.TotalFunds = len(funds)
	for _, f := range funds {
		if latest, ok := navDates[f.ID]; ok && !latest.Before(cutoff) {
			snapshot.FreshFunds++
		} else {
			snapshot.StaleFunds = append(snapshot.StaleFunds, f.ID)
		}
	}
	sort.Strings(snapshot.StaleFunds)
	snapshot.Coverage[CoverageFundNAV] = ratio(snapshot.FreshFunds, snapshot.TotalFunds)

	// 2. 벤치마크 지수 신선도
	indices, err := g.indices.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load indices: %w", err)
	}
	closeDates, err := g.indexHist.GetLatestDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index dates: %w", err)
	}

	snapshot.TotalIndices = len(indices)
	for _, idx := range indices {
		if latest, ok := closeDates[idx.ID]; ok && !latest.Before(cutoff) {
			snapshot.FreshIndices++
		}
	}
	snapshot.Coverage[CoverageIndex] = ratio(snapshot.FreshIndices, snapshot.TotalIndices)

	// 3. 품질 점수
	snapshot.QualityScore = contracts.Round(snapshot.CoverageRate(), 4)
	snapshot.Passed = snapshot.QualityScore >= g.config.MinQualityScore && snapshot.FreshFunds > 0

	return snapshot, nil
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
