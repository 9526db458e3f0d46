package contracts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrailingReturns_GetSet(t *testing.T) {
	var r TrailingReturns

	for i, w := range AllWindows {
		r.Set(w, Float(float64(i)))
	}

	for i, w := range AllWindows {
		got := r.Get(w)
		require.NotNil(t, got, "window %s", w)
		assert.Equal(t, float64(i), *got)
	}
	assert.Equal(t, len(AllWindows), r.Available())

	// Unknown window is ignored
	r.Set(Window("7y"), Float(1))
	assert.Nil(t, r.Get(Window("7y")))
}

func TestTrailingReturns_JSONKeys(t *testing.T) {
	r := TrailingReturns{Y1: Float(12.5)}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	for _, w := range AllWindows {
		assert.Contains(t, decoded, string(w))
	}
	assert.Equal(t, 12.5, decoded["1y"])
	assert.Nil(t, decoded["3y"])
}

func TestOffsetWindows(t *testing.T) {
	for _, spec := range OffsetWindows {
		// 2년 이상만 연환산
		assert.Equal(t, spec.Days > 365, spec.Annualized, spec.Window)
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in     float64
		places int32
		want   float64
	}{
		{12.345, 2, 12.35},
		{-12.345, 2, -12.35},
		{1.23456789, 4, 1.2346},
		{0, 2, 0},
		{99.994, 2, 99.99},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.in, tt.places))
	}

	assert.Nil(t, RoundPtr(nil, 2))
	assert.Equal(t, 1.5, *RoundPtr(Float(1.499999), 2))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2023, 1, 1, 15, 30, 0, 0, time.UTC)
	b := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 365, DaysBetween(a, b))
	assert.Equal(t, -365, DaysBetween(b, a))
}
