package history

import (
	"time"

	"github.com/wonny/mfatlas/internal/contracts"
)

// OnOrBefore returns the point with the latest date <= target.
// A target after the newest point resolves to the newest point (holiday fall-back).
// It reports false when the series is empty or target precedes every point.
func (s *Series) OnOrBefore(target time.Time) (contracts.HistoryPoint, bool) {
	target = contracts.CalendarDate(target)

	i, found := s.search(target)
	if found {
		return s.points[i], true
	}
	// i = 첫 번째로 target보다 큰 점의 위치
	if i == 0 {
		return contracts.HistoryPoint{}, false
	}
	return s.points[i-1], true
}

// OnOrAfter returns the point with the earliest date >= target (forward fill).
//
// The inception guard is the later of the supplied inception date and the
// series' oldest date; a zero inception uses the oldest date. A target before
// the guard fails with ErrPredatesInception instead of snapping to the oldest
// point. A target after the newest point fails with ErrNoAnchor.
func (s *Series) OnOrAfter(target, inception time.Time) (contracts.HistoryPoint, error) {
	oldest, ok := s.Oldest()
	if !ok {
		return contracts.HistoryPoint{}, contracts.ErrEmptyHistory
	}

	target = contracts.CalendarDate(target)
	guard := oldest.Date
	if !inception.IsZero() {
		if inc := contracts.CalendarDate(inception); inc.After(guard) {
			guard = inc
		}
	}
	if target.Before(guard) {
		return contracts.HistoryPoint{}, contracts.ErrPredatesInception
	}

	i, _ := s.search(target)
	if i >= len(s.points) {
		return contracts.HistoryPoint{}, contracts.ErrNoAnchor
	}
	return s.points[i], nil
}
