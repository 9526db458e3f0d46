package collector

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/internal/external/amfi"
	"github.com/wonny/mfatlas/internal/external/kuvera"
	"github.com/wonny/mfatlas/internal/external/mfapi"
	"github.com/wonny/mfatlas/pkg/logger"
)

// UniverseSource lists and describes schemes (Kuvera)
type UniverseSource interface {
	FetchList(ctx context.Context, filter kuvera.Filter) ([]kuvera.ListedFund, error)
	FetchDetails(ctx context.Context, code string) (*kuvera.Details, error)
}

// HistorySource provides the scheme master and full NAV histories (MFAPI)
type HistorySource interface {
	FetchSchemes(ctx context.Context) ([]mfapi.Scheme, error)
	FetchHistory(ctx context.Context, schemeCode string) ([]contracts.HistoryPoint, error)
}

// DailyNAVSource provides the latest NAV of every scheme (AMFI)
type DailyNAVSource interface {
	FetchLatestNAVs(ctx context.Context) ([]amfi.NAVRecord, error)
}

// IndexSource provides index closes since a date (Yahoo)
type IndexSource interface {
	FetchHistory(ctx context.Context, symbol string, since time.Time) ([]contracts.HistoryPoint, error)
}

// Sources bundles the external providers
type Sources struct {
	Universe UniverseSource
	History  HistorySource
	Daily    DailyNAVSource
	Index    IndexSource
}

// Repositories bundles the storage the collector writes to
type Repositories struct {
	Funds        contracts.FundRepository
	FundNAVs     contracts.NAVRepository
	Indices      contracts.IndexRepository
	IndexHistory contracts.NAVRepository
}

// Collector orchestrates data collection from external sources
// ⭐ SSOT: 데이터 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	src    Sources
	repos  Repositories
	logger *logger.Logger
	now    func() time.Time
}

// Config holds collector configuration
type Config struct {
	Workers     int           // Number of concurrent workers
	DetailDelay time.Duration // Kuvera detail 호출 간격
}

func (cfg Config) workers() int {
	if cfg.Workers <= 0 {
		return 1
	}
	return cfg.Workers
}

// NewCollector creates a new Collector instance
func NewCollector(src Sources, repos Repositories, log *logger.Logger) *Collector {
	return &Collector{
		src:    src,
		repos:  repos,
		logger: log.WithField("module", "collector"),
		now:    time.Now,
	}
}

// FetchResult represents the result of a fetch operation for one fund or index
type FetchResult struct {
	ID         string
	PointCount int
	Seeded     bool // 이력 없음, 목록 NAV 한 점만 저장
	Skipped    bool
	Error      error
}

// Summary counts results by outcome
type Summary struct {
	Success int
	Failed  int
	Skipped int
	Points  int
}

// Summarize counts results by outcome
func Summarize(results []FetchResult) Summary {
	var s Summary
	for _, r := range results {
		switch {
		case r.Error != nil:
			s.Failed++
		case r.Skipped:
			s.Skipped++
		default:
			s.Success++
		}
		s.Points += r.PointCount
	}
	return s
}

// runPool fans items out to workers and gathers one result per item
func runPool[T any](ctx context.Context, items []T, workers int, work func(ctx context.Context, workerID int, item T) FetchResult, idOf func(T) string) []FetchResult {
	results := make([]FetchResult, 0, len(items))
	resultCh := make(chan FetchResult, len(items))

	var wg sync.WaitGroup
	itemCh := make(chan T, len(items))

	// Start workers
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for item := range itemCh {
				select {
				case <-ctx.Done():
					resultCh <- FetchResult{ID: idOf(item), Error: ctx.Err()}
					continue
				default:
				}
				resultCh <- work(ctx, workerID, item)
			}
		}(i)
	}

	for _, item := range items {
		itemCh <- item
	}
	close(itemCh)

	// Wait for all workers to complete
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for result := range resultCh {
		results = append(results, result)
	}
	return results
}

func (c *Collector) logSummary(msg string, results []FetchResult) {
	s := Summarize(results)
	c.logger.WithFields(map[string]interface{}{
		"success": s.Success,
		"failed":  s.Failed,
		"skipped": s.Skipped,
		"points":  s.Points,
		"total":   len(results),
	}).Info(msg)
}

func (c *Collector) today() time.Time {
	return contracts.CalendarDate(c.now())
}
