package contracts

import (
	"context"
	"time"
)

// QualityGate checks NAV freshness (S0)
// ⭐ SSOT: S0 데이터 품질 검증 인터페이스
type QualityGate interface {
	Check(ctx context.Context, date time.Time) (*DataQualitySnapshot, error)
}

// ReturnCalculator computes trailing returns for one series (S1)
// ⭐ SSOT: S1 수익률 계산 인터페이스
type ReturnCalculator interface {
	Compute(points []HistoryPoint, inception time.Time) (TrailingReturns, error)
}

// Scorer produces score records for a batch of funds (S2)
// ⭐ SSOT: S2 스코어링 인터페이스
type Scorer interface {
	Score(ctx context.Context, funds []ScoringInput, benchmarks map[string]TrailingReturns) ([]ScoreRecord, error)
}
