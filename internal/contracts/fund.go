package contracts

import "time"

// Asset classes
const (
	AssetClassEquity = "Equity"
	AssetClassHybrid = "Hybrid"
)

// Fund is the static metadata of one mutual fund scheme (direct growth plan)
type Fund struct {
	ID            string    `json:"id"` // ISIN (growth)
	Name          string    `json:"name"`
	AssetClass    string    `json:"asset_class"`  // Equity, Hybrid
	SubCategory   string    `json:"sub_category"` // Large Cap Fund, ...
	AMC           string    `json:"amc"`
	KuveraCode    string    `json:"kuvera_code"`
	SchemeCode    string    `json:"scheme_code,omitempty"` // AMFI/MFAPI 코드
	Rating        string    `json:"rating,omitempty"`
	AUMCrore      float64   `json:"aum_crore"`
	InceptionDate time.Time `json:"inception_date"`
	Active        bool      `json:"active"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasSchemeCode reports whether NAV history can be fetched for the fund
func (f *Fund) HasSchemeCode() bool {
	return f.SchemeCode != ""
}

// Index is a market index used as a benchmark
type Index struct {
	ID            string   `json:"id"` // nifty-50, ...
	Name          string   `json:"name"`
	YahooSymbol   string   `json:"yahoo_symbol"`
	SubCategories []string `json:"sub_categories"`
}

// NAVRecord is one stored NAV or index close
type NAVRecord struct {
	EntityID string
	Date     time.Time
	Value    float64
}
