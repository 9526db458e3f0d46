package contracts

import "time"

// DataQualitySnapshot summarises NAV freshness before a compute run
// ⭐ SSOT: S0 → S1 데이터 품질 정보 전달
type DataQualitySnapshot struct {
	Date         time.Time          `json:"date"`
	TotalFunds   int                `json:"total_funds"`
	FreshFunds   int                `json:"fresh_funds"`
	TotalIndices int                `json:"total_indices"`
	FreshIndices int                `json:"fresh_indices"`
	StaleFunds   []string           `json:"stale_funds,omitempty"`
	Coverage     map[string]float64 `json:"coverage"`      // 데이터별 커버리지
	QualityScore float64            `json:"quality_score"` // 0.0 ~ 1.0
	Passed       bool               `json:"passed"`
}

// IsValid checks if the snapshot meets minimum requirements
func (d *DataQualitySnapshot) IsValid() bool {
	return d.QualityScore >= 0.7 && d.FreshFunds > 0
}

// CoverageRate returns the average coverage rate across all data types
func (d *DataQualitySnapshot) CoverageRate() float64 {
	if len(d.Coverage) == 0 {
		return 0.0
	}

	total := 0.0
	for _, rate := range d.Coverage {
		total += rate
	}

	return total / float64(len(d.Coverage))
}
