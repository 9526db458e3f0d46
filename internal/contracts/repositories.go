package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// FundRepository manages fund metadata
type FundRepository interface {
	GetByID(ctx context.Context, id string) (*Fund, error)
	GetActive(ctx context.Context) ([]*Fund, error)
	Save(ctx context.Context, fund *Fund) error
	SaveBatch(ctx context.Context, funds []*Fund) error
}

// NAVRepository manages NAV / index close series.
// The same interface serves funds and indices (different tables).
type NAVRepository interface {
	GetHistory(ctx context.Context, id string) ([]HistoryPoint, error)
	GetRange(ctx context.Context, id string, from, to time.Time) ([]HistoryPoint, error)
	GetLatest(ctx context.Context, id string) (*HistoryPoint, error)
	GetLatestDates(ctx context.Context) (map[string]time.Time, error)
	SaveBatch(ctx context.Context, id string, points []HistoryPoint) error
}

// IndexRepository manages benchmark index metadata
type IndexRepository interface {
	GetAll(ctx context.Context) ([]*Index, error)
	Save(ctx context.Context, index *Index) error
}

// MetricsRepository persists computed metrics.
// Each Save call replaces whatever earlier runs left for that kind.
type MetricsRepository interface {
	SaveFundReturns(ctx context.Context, runID string, returns map[string]TrailingReturns) error
	SaveIndexReturns(ctx context.Context, runID string, returns map[string]TrailingReturns) error
	SaveScores(ctx context.Context, runID string, scores []ScoreRecord) error
	SaveCategoryAverages(ctx context.Context, runID string, averages []CategoryAverage) error
	GetFundReturns(ctx context.Context, fundID string) (*TrailingReturns, error)
	GetIndexReturns(ctx context.Context) (map[string]TrailingReturns, error)
	GetScore(ctx context.Context, fundID string) (*ScoreRecord, error)
	GetScores(ctx context.Context) (map[string]ScoreRecord, error)
	GetCategoryAverages(ctx context.Context) ([]CategoryAverage, error)
}

// RunRepository records compute pipeline runs
type RunRepository interface {
	Start(ctx context.Context, run *PipelineRun) error
	Finish(ctx context.Context, run *PipelineRun) error
	GetLatest(ctx context.Context) (*PipelineRun, error)
}
