package kuvera

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ListResponse is the master list: asset class -> category -> fund house -> schemes
type ListResponse map[string]map[string]map[string][]ListEntry

// ListEntry is one scheme in the master list
type ListEntry struct {
	Code         string    `json:"c"`
	Name         string    `json:"n"`
	NAV          FlexFloat `json:"v"`
	Reinvestment string    `json:"re"`
}

// FlexFloat accepts numbers and numeric strings
type FlexFloat float64

// UnmarshalJSON decodes 12.3, "12.3", "" and null
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

// ListedFund is a scheme that passed the universe filter
type ListedFund struct {
	Code         string
	Name         string
	AssetClass   string
	Category     string
	FundHouse    string
	NAV          float64
	Reinvestment string
}

// Details is the per-scheme detail document (first element of the v5 response)
type Details struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	ISIN         string          `json:"ISIN"`
	FundHouse    string          `json:"fund_house"`
	FundName     string          `json:"fund_name"`
	FundCategory string          `json:"fund_category"`
	FundRating   json.RawMessage `json:"fund_rating"`
	AUM          FlexFloat       `json:"aum"` // 10 lakh 단위
	StartDate    string          `json:"start_date"`
}

// AUMCrore converts Kuvera's AUM (in units of 10 lakh) to crore
func (d *Details) AUMCrore() float64 {
	return float64(d.AUM) / 10
}

// Rating returns the fund rating as text ("" when unrated)
func (d *Details) Rating() string {
	raw := strings.TrimSpace(string(d.FundRating))
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(d.FundRating, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(d.FundRating, &n); err == nil && n > 0 {
		return strconv.Itoa(int(n))
	}
	return ""
}

// Inception parses start_date (YYYY-MM-DD); zero when missing
func (d *Details) Inception() time.Time {
	if len(d.StartDate) < 10 {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", d.StartDate[:10])
	if err != nil {
		return time.Time{}
	}
	return t
}

// Filter selects direct growth schemes in the allowed categories
type Filter struct {
	Categories        map[string][]string // asset class -> categories
	GrowthSuffix      string
	ReinvestmentFlags []string
	NameMustContain   string
}

// Apply walks the list in a deterministic order and returns matching schemes
func (f Filter) Apply(list ListResponse) []ListedFund {
	var out []ListedFund

	assetClasses := make([]string, 0, len(f.Categories))
	for ac := range f.Categories {
		assetClasses = append(assetClasses, ac)
	}
	sort.Strings(assetClasses)

	for _, assetClass := range assetClasses {
		categories, ok := list[assetClass]
		if !ok {
			continue
		}
		for _, category := range f.Categories[assetClass] {
			houses, ok := categories[category]
			if !ok {
				continue
			}

			names := make([]string, 0, len(houses))
			for h := range houses {
				names = append(names, h)
			}
			sort.Strings(names)

			for _, house := range names {
				for _, e := range houses[house] {
					if !f.Matches(e) {
						continue
					}
					out = append(out, ListedFund{
						Code:         e.Code,
						Name:         e.Name,
						AssetClass:   assetClass,
						Category:     category,
						FundHouse:    house,
						NAV:          float64(e.NAV),
						Reinvestment: e.Reinvestment,
					})
				}
			}
		}
	}
	return out
}

// Matches reports whether a list entry is a direct growth plan
func (f Filter) Matches(e ListEntry) bool {
	if e.Code == "" || !strings.HasSuffix(e.Code, f.GrowthSuffix) {
		return false
	}

	flagged := len(f.ReinvestmentFlags) == 0
	for _, flag := range f.ReinvestmentFlags {
		if e.Reinvestment == flag {
			flagged = true
			break
		}
	}
	if !flagged {
		return false
	}

	return f.NameMustContain == "" ||
		strings.Contains(strings.ToUpper(e.Name), strings.ToUpper(f.NameMustContain))
}
