package atlasconfig

import (
	"fmt"
	"sort"

	"github.com/robfig/cron/v3"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/internal/s1_returns"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ConfigID == "" {
		return ValidationError{"meta.config_id", "required"}
	}

	// === Universe ===
	if len(cfg.Universe.Categories) == 0 {
		return ValidationError{"universe.categories", "must not be empty"}
	}
	for assetClass, cats := range cfg.Universe.Categories {
		if assetClass != contracts.AssetClassEquity && assetClass != contracts.AssetClassHybrid {
			return ValidationError{"universe.categories", fmt.Sprintf("unknown asset class %q", assetClass)}
		}
		if len(cats) == 0 {
			return ValidationError{"universe.categories." + assetClass, "must not be empty"}
		}
	}
	if cfg.Universe.GrowthSuffix == "" {
		return ValidationError{"universe.growth_suffix", "required"}
	}
	if cfg.Universe.DetailDelayMs < 0 {
		return ValidationError{"universe.detail_delay_ms", "must be >= 0"}
	}

	// === Indices ===
	if len(cfg.Indices) == 0 {
		return ValidationError{"indices", "must not be empty"}
	}
	seen := make(map[string]bool, len(cfg.Indices))
	for i, idx := range cfg.Indices {
		field := fmt.Sprintf("indices[%d]", i)
		if idx.ID == "" {
			return ValidationError{field + ".id", "required"}
		}
		if seen[idx.ID] {
			return ValidationError{field + ".id", fmt.Sprintf("duplicate id %q", idx.ID)}
		}
		seen[idx.ID] = true
		if idx.YahooSymbol == "" {
			return ValidationError{field + ".yahoo_symbol", "required"}
		}
	}

	// === Benchmarks ===
	// 벤치마크는 반드시 카탈로그에 있는 지수여야 함
	for sub, id := range cfg.Benchmarks {
		if !seen[id] {
			return ValidationError{"benchmarks." + sub, fmt.Sprintf("unknown index %q", id)}
		}
	}

	// === Returns ===
	switch s1_returns.AnchorPolicy(cfg.Returns.AnchorPolicy) {
	case s1_returns.AnchorForwardFill, s1_returns.AnchorBackwardFill:
	default:
		return ValidationError{"returns.anchor_policy", "must be forward_fill or backward_fill"}
	}
	if cfg.Returns.Workers < 0 {
		return ValidationError{"returns.workers", "must be >= 0"}
	}

	// === Scoring ===
	if cfg.Scoring.Workers < 0 {
		return ValidationError{"scoring.workers", "must be >= 0"}
	}
	if err := cfg.ScoringPolicy().Validate(); err != nil {
		return ValidationError{"scoring", err.Error()}
	}

	// === SIP ===
	if cfg.SIP.DefaultMonthlyAmount <= 0 {
		return ValidationError{"sip.default_monthly_amount", "must be > 0"}
	}
	if cfg.SIP.DefaultStepUpPct < 0 {
		return ValidationError{"sip.default_step_up_pct", "must be >= 0"}
	}
	if cfg.SIP.Currency == "" {
		return ValidationError{"sip.currency", "required"}
	}

	// === Quality ===
	if cfg.Quality.MaxStaleDays <= 0 {
		return ValidationError{"quality.max_stale_days", "must be > 0"}
	}
	if cfg.Quality.MinQualityScore < 0 || cfg.Quality.MinQualityScore > 1 {
		return ValidationError{"quality.min_quality_score", "must be in range [0, 1]"}
	}

	// === Schedule ===
	for field, spec := range map[string]string{
		"schedule.fund_nav_sync":    cfg.Schedule.FundNAVSync,
		"schedule.index_sync":       cfg.Schedule.IndexSync,
		"schedule.compute":          cfg.Schedule.Compute,
		"schedule.universe_refresh": cfg.Schedule.UniverseRefresh,
	} {
		if _, err := cronParser.Parse(spec); err != nil {
			return ValidationError{field, fmt.Sprintf("invalid cron %q: %v", spec, err)}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.AnchorPolicy() == s1_returns.AnchorBackwardFill {
		warnings = append(warnings, Warning{
			Code:    "BACKWARD_FILL",
			Message: "backward_fill anchors can start a window on a NAV older than the window",
		})
	}

	// 수집하지만 스코어링되지 않는 주식형 카테고리
	var unbenchmarked []string
	for _, cat := range cfg.Universe.Categories[contracts.AssetClassEquity] {
		if _, ok := cfg.Benchmarks[cat]; !ok {
			unbenchmarked = append(unbenchmarked, cat)
		}
	}
	if len(unbenchmarked) > 0 {
		sort.Strings(unbenchmarked)
		warnings = append(warnings, Warning{
			Code:    "UNBENCHMARKED_CATEGORY",
			Message: fmt.Sprintf("equity categories collected but not scored: %v", unbenchmarked),
		})
	}

	// 카탈로그에 있지만 어떤 카테고리의 벤치마크도 아닌 지수
	for _, idx := range cfg.Indices {
		if len(cfg.SubCategoriesOf(idx.ID)) == 0 {
			warnings = append(warnings, Warning{
				Code:    "UNUSED_INDEX",
				Message: fmt.Sprintf("index %s is synced but benchmarks no category", idx.ID),
			})
		}
	}

	return warnings
}
