package atlasconfig

import (
	"sort"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/internal/external/kuvera"
	"github.com/wonny/mfatlas/internal/s1_returns"
	"github.com/wonny/mfatlas/internal/s2_scoring"
)

// Config는 엔진 전체 설정 (config/atlas.yaml)
type Config struct {
	Meta       Meta              `yaml:"meta" json:"meta"`
	Universe   Universe          `yaml:"universe" json:"universe"`
	Indices    []IndexDef        `yaml:"indices" json:"indices"`
	Benchmarks map[string]string `yaml:"benchmarks" json:"benchmarks"` // sub-category -> index id
	Returns    Returns           `yaml:"returns" json:"returns"`
	Scoring    Scoring           `yaml:"scoring" json:"scoring"`
	SIP        SIP               `yaml:"sip" json:"sip"`
	Quality    Quality           `yaml:"quality" json:"quality"`
	Schedule   Schedule          `yaml:"schedule" json:"schedule"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
	Timezone string `yaml:"timezone" json:"timezone"`
}

// Universe: Kuvera 목록에서 수집할 펀드 범위
type Universe struct {
	// asset class -> Kuvera category 이름 (대소문자 그대로)
	Categories map[string][]string `yaml:"categories" json:"categories"`

	GrowthSuffix      string   `yaml:"growth_suffix" json:"growth_suffix"`           // "-GR"
	ReinvestmentFlags []string `yaml:"reinvestment_flags" json:"reinvestment_flags"` // Y, Z
	NameMustContain   string   `yaml:"name_must_contain" json:"name_must_contain"`   // DIRECT
	DetailDelayMs     int      `yaml:"detail_delay_ms" json:"detail_delay_ms"`
}

// IndexDef is one benchmark index in the catalogue
type IndexDef struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	YahooSymbol string `yaml:"yahoo_symbol" json:"yahoo_symbol"`
}

// Returns: 기간 수익률 기준점 정책
type Returns struct {
	AnchorPolicy string `yaml:"anchor_policy" json:"anchor_policy"` // forward_fill | backward_fill
	Workers      int    `yaml:"workers" json:"workers"`
}

// Scoring S2 가중치
type Scoring struct {
	Workers         int              `yaml:"workers" json:"workers"`
	Weights         CompositeWeights `yaml:"weights" json:"weights"`
	Horizons        HorizonWeights   `yaml:"horizons" json:"horizons"`
	SizeBandCrore   SizeBand         `yaml:"size_band_crore" json:"size_band_crore"`
	NeutralScore    float64          `yaml:"neutral_score" json:"neutral_score"`
	ReputationFloor float64          `yaml:"reputation_floor" json:"reputation_floor"`
}

type CompositeWeights struct {
	Performance float64 `yaml:"performance" json:"performance"`
	Rating      float64 `yaml:"rating" json:"rating"`
	Size        float64 `yaml:"size" json:"size"`
	Reputation  float64 `yaml:"reputation" json:"reputation"`
}

type HorizonWeights struct {
	Full  HorizonSet `yaml:"full" json:"full"`   // 1y, 3y, 5y
	Short HorizonSet `yaml:"short" json:"short"` // 1y, 3y
}

type HorizonSet struct {
	Y1 float64 `yaml:"1y" json:"1y"`
	Y3 float64 `yaml:"3y" json:"3y"`
	Y5 float64 `yaml:"5y" json:"5y"`
}

type SizeBand struct {
	Min       float64 `yaml:"min" json:"min"`
	Max       float64 `yaml:"max" json:"max"`
	BelowStep float64 `yaml:"below_step" json:"below_step"`
	AboveStep float64 `yaml:"above_step" json:"above_step"`
}

// SIP 기본값 (API/CLI 입력 누락 시)
type SIP struct {
	DefaultMonthlyAmount float64 `yaml:"default_monthly_amount" json:"default_monthly_amount"`
	DefaultStepUpPct     float64 `yaml:"default_step_up_pct" json:"default_step_up_pct"`
	Currency             string  `yaml:"currency" json:"currency"`
}

// Quality S0 게이트
type Quality struct {
	MaxStaleDays    int     `yaml:"max_stale_days" json:"max_stale_days"`
	MinQualityScore float64 `yaml:"min_quality_score" json:"min_quality_score"`
}

// Schedule cron (초 포함 6필드)
type Schedule struct {
	FundNAVSync     string `yaml:"fund_nav_sync" json:"fund_nav_sync"`
	IndexSync       string `yaml:"index_sync" json:"index_sync"`
	Compute         string `yaml:"compute" json:"compute"`
	UniverseRefresh string `yaml:"universe_refresh" json:"universe_refresh"`
}

// AnchorPolicy converts the YAML policy to the calculator type
func (c *Config) AnchorPolicy() s1_returns.AnchorPolicy {
	return s1_returns.AnchorPolicy(c.Returns.AnchorPolicy)
}

// ScoringPolicy converts the YAML weights to the engine policy
func (c *Config) ScoringPolicy() s2_scoring.Policy {
	s := c.Scoring
	return s2_scoring.Policy{
		Composite: s2_scoring.CompositeWeights{
			Performance: s.Weights.Performance,
			Rating:      s.Weights.Rating,
			Size:        s.Weights.Size,
			Reputation:  s.Weights.Reputation,
		},
		Horizons: s2_scoring.HorizonWeights{
			Full1Y:  s.Horizons.Full.Y1,
			Full3Y:  s.Horizons.Full.Y3,
			Full5Y:  s.Horizons.Full.Y5,
			Short1Y: s.Horizons.Short.Y1,
			Short3Y: s.Horizons.Short.Y3,
		},
		Size: s2_scoring.SizeBand{
			Min:       s.SizeBandCrore.Min,
			Max:       s.SizeBandCrore.Max,
			BelowStep: s.SizeBandCrore.BelowStep,
			AboveStep: s.SizeBandCrore.AboveStep,
		},
		NeutralScore:    s.NeutralScore,
		ReputationFloor: s.ReputationFloor,
	}
}

// Index looks up a catalogue entry by id
func (c *Config) Index(id string) (IndexDef, bool) {
	for _, idx := range c.Indices {
		if idx.ID == id {
			return idx, true
		}
	}
	return IndexDef{}, false
}

// SubCategoriesOf lists the sub-categories benchmarked against an index
func (c *Config) SubCategoriesOf(indexID string) []string {
	var out []string
	for sub, id := range c.Benchmarks {
		if id == indexID {
			out = append(out, sub)
		}
	}
	sort.Strings(out)
	return out
}

// AllowsCategory reports whether a Kuvera asset class/category pair is collected
func (u *Universe) AllowsCategory(assetClass, category string) bool {
	for _, c := range u.Categories[assetClass] {
		if c == category {
			return true
		}
	}
	return false
}

// IndexCatalogue builds the index rows with their benchmarked sub-categories
func (c *Config) IndexCatalogue() []*contracts.Index {
	out := make([]*contracts.Index, 0, len(c.Indices))
	for _, def := range c.Indices {
		out = append(out, &contracts.Index{
			ID:            def.ID,
			Name:          def.Name,
			YahooSymbol:   def.YahooSymbol,
			SubCategories: c.SubCategoriesOf(def.ID),
		})
	}
	return out
}

// KuveraFilter converts the universe section to the list filter
func (u *Universe) KuveraFilter() kuvera.Filter {
	return kuvera.Filter{
		Categories:        u.Categories,
		GrowthSuffix:      u.GrowthSuffix,
		ReinvestmentFlags: u.ReinvestmentFlags,
		NameMustContain:   u.NameMustContain,
	}
}
