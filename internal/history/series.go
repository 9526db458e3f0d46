package history

import (
	"fmt"
	"slices"
	"time"

	"github.com/wonny/mfatlas/internal/contracts"
)

// Series is a validated NAV/close history sorted by ascending date.
// It is immutable after New.
// ⭐ SSOT: 날짜 기준 조회는 이 타입을 통해서만
type Series struct {
	points []contracts.HistoryPoint
}

// New copies, normalises and sorts points.
// Duplicate dates and non-positive values are precondition violations.
func New(points []contracts.HistoryPoint) (*Series, error) {
	sorted := make([]contracts.HistoryPoint, len(points))
	for i, p := range points {
		if p.Value <= 0 {
			return nil, fmt.Errorf("%w: %s = %v", contracts.ErrNonPositiveValue, p.Date.Format("2006-01-02"), p.Value)
		}
		sorted[i] = contracts.HistoryPoint{Date: contracts.CalendarDate(p.Date), Value: p.Value}
	}

	slices.SortFunc(sorted, func(a, b contracts.HistoryPoint) int {
		return a.Date.Compare(b.Date)
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date.Equal(sorted[i-1].Date) {
			return nil, fmt.Errorf("%w: %s", contracts.ErrDuplicateDate, sorted[i].Date.Format("2006-01-02"))
		}
	}

	return &Series{points: sorted}, nil
}

// MustNew is New for fixtures; it panics on invalid input
func MustNew(points []contracts.HistoryPoint) *Series {
	s, err := New(points)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of points
func (s *Series) Len() int {
	return len(s.points)
}

// IsEmpty reports whether the series has no points
func (s *Series) IsEmpty() bool {
	return len(s.points) == 0
}

// Oldest returns the earliest point
func (s *Series) Oldest() (contracts.HistoryPoint, bool) {
	if s.IsEmpty() {
		return contracts.HistoryPoint{}, false
	}
	return s.points[0], true
}

// Latest returns the newest point
func (s *Series) Latest() (contracts.HistoryPoint, bool) {
	if s.IsEmpty() {
		return contracts.HistoryPoint{}, false
	}
	return s.points[len(s.points)-1], true
}

// Previous returns the point stored just before the newest one
func (s *Series) Previous() (contracts.HistoryPoint, bool) {
	if len(s.points) < 2 {
		return contracts.HistoryPoint{}, false
	}
	return s.points[len(s.points)-2], true
}

// Ascending returns a copy of the points, oldest first
func (s *Series) Ascending() []contracts.HistoryPoint {
	return slices.Clone(s.points)
}

// Descending returns a copy of the points, newest first
func (s *Series) Descending() []contracts.HistoryPoint {
	out := slices.Clone(s.points)
	slices.Reverse(out)
	return out
}

// Since returns the points dated strictly after t, oldest first
func (s *Series) Since(t time.Time) []contracts.HistoryPoint {
	t = contracts.CalendarDate(t)
	i, found := s.search(t)
	if found {
		i++
	}
	return slices.Clone(s.points[i:])
}

// search finds the insertion index of target
func (s *Series) search(target time.Time) (int, bool) {
	return slices.BinarySearchFunc(s.points, target, func(p contracts.HistoryPoint, t time.Time) int {
		return p.Date.Compare(t)
	})
}
