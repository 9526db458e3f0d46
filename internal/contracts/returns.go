package contracts

// Window is a trailing-return horizon key
type Window string

const (
	Window1D             Window = "1d"
	Window1W             Window = "1w"
	Window1M             Window = "1m"
	Window3M             Window = "3m"
	Window6M             Window = "6m"
	Window1Y             Window = "1y"
	Window2Y             Window = "2y"
	Window3Y             Window = "3y"
	Window5Y             Window = "5y"
	Window10Y            Window = "10y"
	WindowSinceInception Window = "since_inception"
)

// WindowSpec describes how a window is measured
type WindowSpec struct {
	Window     Window
	Days       int  // calendar-day offset from the latest date (0 for 1d / since_inception)
	Annualized bool // CAGR instead of absolute return
}

// OffsetWindows are the calendar-offset windows in ascending order.
// 1y is absolute; 2y and longer are annualized with years = days/365.
var OffsetWindows = []WindowSpec{
	{Window: Window1W, Days: 7},
	{Window: Window1M, Days: 30},
	{Window: Window3M, Days: 90},
	{Window: Window6M, Days: 180},
	{Window: Window1Y, Days: 365},
	{Window: Window2Y, Days: 730, Annualized: true},
	{Window: Window3Y, Days: 1095, Annualized: true},
	{Window: Window5Y, Days: 1825, Annualized: true},
	{Window: Window10Y, Days: 3650, Annualized: true},
}

// AllWindows lists every window key in display order
var AllWindows = []Window{
	Window1D, Window1W, Window1M, Window3M, Window6M,
	Window1Y, Window2Y, Window3Y, Window5Y, Window10Y,
	WindowSinceInception,
}

// TrailingReturns holds one nullable percentage per window
// ⭐ SSOT: S1 → S2 수익률 전달 구조
type TrailingReturns struct {
	D1             *float64 `json:"1d"`
	W1             *float64 `json:"1w"`
	M1             *float64 `json:"1m"`
	M3             *float64 `json:"3m"`
	M6             *float64 `json:"6m"`
	Y1             *float64 `json:"1y"`
	Y2             *float64 `json:"2y"`
	Y3             *float64 `json:"3y"`
	Y5             *float64 `json:"5y"`
	Y10            *float64 `json:"10y"`
	SinceInception *float64 `json:"since_inception"`
}

// Get returns the value for w (nil when missing or unknown)
func (r *TrailingReturns) Get(w Window) *float64 {
	if p := r.slot(w); p != nil {
		return *p
	}
	return nil
}

// Set stores v for w. Unknown windows are ignored.
func (r *TrailingReturns) Set(w Window, v *float64) {
	if p := r.slot(w); p != nil {
		*p = v
	}
}

// Available counts non-null windows
func (r *TrailingReturns) Available() int {
	n := 0
	for _, w := range AllWindows {
		if r.Get(w) != nil {
			n++
		}
	}
	return n
}

func (r *TrailingReturns) slot(w Window) **float64 {
	switch w {
	case Window1D:
		return &r.D1
	case Window1W:
		return &r.W1
	case Window1M:
		return &r.M1
	case Window3M:
		return &r.M3
	case Window6M:
		return &r.M6
	case Window1Y:
		return &r.Y1
	case Window2Y:
		return &r.Y2
	case Window3Y:
		return &r.Y3
	case Window5Y:
		return &r.Y5
	case Window10Y:
		return &r.Y10
	case WindowSinceInception:
		return &r.SinceInception
	default:
		return nil
	}
}

// CategoryAverage is the mean trailing return across one sub-category
type CategoryAverage struct {
	SubCategory string          `json:"sub_category"`
	FundCount   int             `json:"fund_count"`
	Returns     TrailingReturns `json:"returns"`
}
