package history

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mfatlas/internal/contracts"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// 2024-01-01(월) ~ 2024-01-12 평일만 (주말 제외)
func weekdaySeries(t *testing.T) *Series {
	t.Helper()
	var points []contracts.HistoryPoint
	for d := day(2024, 1, 1); !d.After(day(2024, 1, 12)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		points = append(points, contracts.HistoryPoint{Date: d, Value: float64(100 + d.Day())})
	}
	s, err := New(points)
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	t.Run("sorts unordered input", func(t *testing.T) {
		s, err := New([]contracts.HistoryPoint{
			{Date: day(2024, 1, 3), Value: 3},
			{Date: day(2024, 1, 1), Value: 1},
			{Date: day(2024, 1, 2), Value: 2},
		})
		require.NoError(t, err)

		asc := s.Ascending()
		assert.Equal(t, day(2024, 1, 1), asc[0].Date)
		assert.Equal(t, day(2024, 1, 3), asc[2].Date)

		desc := s.Descending()
		assert.Equal(t, day(2024, 1, 3), desc[0].Date)
	})

	t.Run("truncates time of day", func(t *testing.T) {
		s, err := New([]contracts.HistoryPoint{
			{Date: time.Date(2024, 1, 1, 18, 30, 0, 0, time.UTC), Value: 1},
		})
		require.NoError(t, err)
		latest, _ := s.Latest()
		assert.Equal(t, day(2024, 1, 1), latest.Date)
	})

	t.Run("rejects duplicate dates", func(t *testing.T) {
		_, err := New([]contracts.HistoryPoint{
			{Date: day(2024, 1, 1), Value: 1},
			{Date: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), Value: 2},
		})
		assert.True(t, errors.Is(err, contracts.ErrDuplicateDate))
	})

	t.Run("rejects non-positive values", func(t *testing.T) {
		_, err := New([]contracts.HistoryPoint{{Date: day(2024, 1, 1), Value: 0}})
		assert.True(t, errors.Is(err, contracts.ErrNonPositiveValue))
	})

	t.Run("does not alias caller slice", func(t *testing.T) {
		in := []contracts.HistoryPoint{{Date: day(2024, 1, 1), Value: 1}}
		s := MustNew(in)
		in[0].Value = 99
		p, _ := s.Latest()
		assert.Equal(t, 1.0, p.Value)
	})
}

func TestOnOrBefore(t *testing.T) {
	s := weekdaySeries(t)

	tests := []struct {
		name     string
		target   time.Time
		wantDate time.Time
		wantOK   bool
	}{
		{"exact trading day", day(2024, 1, 3), day(2024, 1, 3), true},
		{"saturday falls back to friday", day(2024, 1, 6), day(2024, 1, 5), true},
		{"sunday falls back to friday", day(2024, 1, 7), day(2024, 1, 5), true},
		{"after newest carries last value", day(2024, 3, 1), day(2024, 1, 12), true},
		{"oldest date", day(2024, 1, 1), day(2024, 1, 1), true},
		{"before oldest", day(2023, 12, 31), time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.OnOrBefore(tt.target)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantDate, got.Date)
			}
		})
	}
}

func TestOnOrBefore_Empty(t *testing.T) {
	s := MustNew(nil)
	_, ok := s.OnOrBefore(day(2024, 1, 1))
	assert.False(t, ok)
}

// Maximality: no point dated later than the result is still <= target
func TestOnOrBefore_Maximality(t *testing.T) {
	s := weekdaySeries(t)
	points := s.Ascending()

	for target := day(2023, 12, 25); target.Before(day(2024, 1, 20)); target = target.AddDate(0, 0, 1) {
		got, ok := s.OnOrBefore(target)
		if !ok {
			assert.True(t, target.Before(points[0].Date), "target %s", target)
			continue
		}
		assert.False(t, got.Date.After(target))
		for _, p := range points {
			if p.Date.After(got.Date) {
				assert.True(t, p.Date.After(target), "point %s beats %s for target %s", p.Date, got.Date, target)
			}
		}
	}
}

func TestOnOrAfter(t *testing.T) {
	s := weekdaySeries(t)

	tests := []struct {
		name      string
		target    time.Time
		inception time.Time
		wantDate  time.Time
		wantErr   error
	}{
		{"exact trading day", day(2024, 1, 3), time.Time{}, day(2024, 1, 3), nil},
		{"saturday forward fills to monday", day(2024, 1, 6), time.Time{}, day(2024, 1, 8), nil},
		{"oldest date", day(2024, 1, 1), time.Time{}, day(2024, 1, 1), nil},
		{"before oldest predates inception", day(2023, 12, 29), time.Time{}, time.Time{}, contracts.ErrPredatesInception},
		{"before explicit inception", day(2024, 1, 2), day(2024, 1, 4), time.Time{}, contracts.ErrPredatesInception},
		{"inception earlier than oldest uses oldest", day(2023, 12, 30), day(2023, 1, 1), time.Time{}, contracts.ErrPredatesInception},
		{"after newest", day(2024, 1, 13), time.Time{}, time.Time{}, contracts.ErrNoAnchor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.OnOrAfter(tt.target, tt.inception)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDate, got.Date)
		})
	}
}

// Minimality: result is the earliest point >= target
func TestOnOrAfter_Minimality(t *testing.T) {
	s := weekdaySeries(t)
	points := s.Ascending()

	for target := day(2024, 1, 1); !target.After(day(2024, 1, 12)); target = target.AddDate(0, 0, 1) {
		got, err := s.OnOrAfter(target, time.Time{})
		require.NoError(t, err)
		assert.False(t, got.Date.Before(target))
		for _, p := range points {
			if p.Date.Before(got.Date) {
				assert.True(t, p.Date.Before(target))
			}
		}
	}
}

func TestOnOrAfter_Empty(t *testing.T) {
	_, err := MustNew(nil).OnOrAfter(day(2024, 1, 1), time.Time{})
	assert.ErrorIs(t, err, contracts.ErrEmptyHistory)
}

func TestPreviousAndSince(t *testing.T) {
	s := weekdaySeries(t)

	prev, ok := s.Previous()
	require.True(t, ok)
	assert.Equal(t, day(2024, 1, 11), prev.Date)

	_, ok = MustNew([]contracts.HistoryPoint{{Date: day(2024, 1, 1), Value: 1}}).Previous()
	assert.False(t, ok)

	since := s.Since(day(2024, 1, 10))
	require.Len(t, since, 2)
	assert.Equal(t, day(2024, 1, 11), since[0].Date)

	// 휴일 기준일
	since = s.Since(day(2024, 1, 7))
	assert.Equal(t, day(2024, 1, 8), since[0].Date)
}
