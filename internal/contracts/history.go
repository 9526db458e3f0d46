package contracts

import "time"

// HistoryPoint is a NAV or index close on one trading day
// ⭐ SSOT: 시계열 한 점의 정의는 여기서만
type HistoryPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Cashflow is a dated, signed amount.
// Negative = investment (outflow), positive = redemption or valuation (inflow).
type Cashflow struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// CalendarDate truncates t to its UTC calendar day
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns whole calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(CalendarDate(b).Sub(CalendarDate(a)).Hours() / 24)
}
