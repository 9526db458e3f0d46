package contracts

// ScoreStatus tells why a score record is (or is not) populated
type ScoreStatus string

const (
	ScoreStatusScored           ScoreStatus = "scored"
	ScoreStatusNotApplicable    ScoreStatus = "not_applicable"
	ScoreStatusMissingBenchmark ScoreStatus = "missing_benchmark"
)

// ScoreRecord is the composite quality score of one fund.
// All numeric fields are null when Status != scored.
// ⭐ SSOT: S2 스코어 출력 구조
type ScoreRecord struct {
	FundID           string      `json:"fund_id"`
	BenchmarkID      string      `json:"benchmark_id,omitempty"`
	Status           ScoreStatus `json:"status"`
	PerformanceScore *float64    `json:"performance_score"`
	RatingScore      *float64    `json:"rating_score"`
	AUMScore         *float64    `json:"aum_score"`
	ReputationScore  *float64    `json:"reputation_score"`
	Alpha1Y          *float64    `json:"alpha_1y"`
	Alpha3Y          *float64    `json:"alpha_3y"`
	Alpha5Y          *float64    `json:"alpha_5y"`
	CompositeScore   *float64    `json:"composite_score"`
}

// IsScored reports whether the record carries a composite score
func (s *ScoreRecord) IsScored() bool {
	return s.Status == ScoreStatusScored && s.CompositeScore != nil
}

// Err maps a non-scored status to its sentinel, nil when scored
func (s *ScoreRecord) Err() error {
	switch s.Status {
	case ScoreStatusNotApplicable:
		return ErrNotApplicable
	case ScoreStatusMissingBenchmark:
		return ErrMissingBenchmark
	default:
		return nil
	}
}

// ScoringInput is everything the scoring engine needs about one fund
type ScoringInput struct {
	FundID      string
	AssetClass  string
	SubCategory string
	AMC         string
	Rating      string
	AUMCrore    float64
	Returns     TrailingReturns
}

// NewScoringInput builds a scoring input from fund metadata and its returns
func NewScoringInput(f *Fund, returns TrailingReturns) ScoringInput {
	return ScoringInput{
		FundID:      f.ID,
		AssetClass:  f.AssetClass,
		SubCategory: f.SubCategory,
		AMC:         f.AMC,
		Rating:      f.Rating,
		AUMCrore:    f.AUMCrore,
		Returns:     returns,
	}
}
