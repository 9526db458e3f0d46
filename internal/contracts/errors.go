package contracts

import "errors"

// ⭐ SSOT: 엔진 오류 분류는 여기서만
// All of these degrade a single metric to null; none aborts a batch.
var (
	ErrInvalidDateRange  = errors.New("start date is after end date")
	ErrInvalidAmount     = errors.New("contribution amount must be positive")
	ErrInvalidStepUp     = errors.New("invalid step-up configuration")
	ErrPredatesInception = errors.New("target date predates series inception")
	ErrNoAnchor          = errors.New("no history point resolvable for target date")
	ErrEmptyHistory      = errors.New("history is empty")
	ErrIncalculable      = errors.New("result is incalculable")
	ErrNoConvergence     = errors.New("rate solver did not converge")
	ErrMissingBenchmark  = errors.New("benchmark returns missing")
	ErrNotApplicable     = errors.New("scoring not applicable to fund")

	// Repository lookups
	ErrNotFound = errors.New("not found")

	// Precondition violations, raised by history validation
	ErrDuplicateDate    = errors.New("duplicate history date")
	ErrNonPositiveValue = errors.New("non-positive history value")
)
