package contracts

import "time"

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 스냅샷, DB row에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2
//   Data  Returns  Scoring

// Stage represents a pipeline stage
type Stage string

const (
	// StageDataQuality S0: NAV/지수 수집 및 품질 검증
	// 위치: internal/s0_data/
	StageDataQuality Stage = "S0_DATA_QUALITY"

	// StageReturns S1: 기간 수익률, 카테고리 평균
	// 위치: internal/s1_returns/
	StageReturns Stage = "S1_RETURNS"

	// StageScoring S2: 알파 정규화 및 종합 점수
	// 위치: internal/s2_scoring/
	StageScoring Stage = "S2_SCORING"
)

// String returns the string representation
func (s Stage) String() string {
	return string(s)
}

// AllStages returns stages in execution order
func AllStages() []Stage {
	return []Stage{StageDataQuality, StageReturns, StageScoring}
}

// Run status
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// PipelineRun is one execution of the compute pipeline
type PipelineRun struct {
	RunID      string     `json:"run_id"`
	ConfigHash string     `json:"config_hash"`
	AsOf       time.Time  `json:"as_of"`
	Status     string     `json:"status"`
	Funds      int        `json:"funds"`
	Indices    int        `json:"indices"`
	Scored     int        `json:"scored"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Duration returns the run time, zero while running
func (r *PipelineRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
