package contracts

import "github.com/shopspring/decimal"

// Output precision
const (
	MoneyPlaces   int32 = 2 // 금액, 퍼센트
	PercentPlaces int32 = 2
	UnitPlaces    int32 = 4 // 보유 좌수
)

// Round rounds v half away from zero to the given decimal places
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundPtr rounds a nullable value; nil stays nil
func RoundPtr(v *float64, places int32) *float64 {
	if v == nil {
		return nil
	}
	r := Round(*v, places)
	return &r
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
