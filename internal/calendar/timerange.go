package calendar

import (
	"errors"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrZeroDuration     = errors.New("time range must have positive duration")
)

// TimeRange представляет временной интервал [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange создаёт интервал и делает простую валидацию.
// Интервалы нулевой длины запрещены.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, ErrInvalidTimeRange
	}
	if !end.After(start) {
		return TimeRange{}, ErrZeroDuration
	}
	return TimeRange{Start: start, End: end}, nil
}

// Duration возвращает длительность интервала.
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Overlaps проверяет пересечение двух полуоткрытых интервалов.
// Касание концами (a.End == b.Start) пересечением не считается.
func Overlaps(a, b TimeRange) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// HasOverlap проверяет, пересекается ли newRange хотя бы с одним из existing,
// и возвращает все конфликтующие интервалы.
func HasOverlap(newRange TimeRange, existing []TimeRange) (bool, []TimeRange) {
	var conflicts []TimeRange

	for _, tr := range existing {
		if Overlaps(newRange, tr) {
			conflicts = append(conflicts, tr)
		}
	}

	return len(conflicts) > 0, conflicts
}

// ContainsTime проверяет, что точка t лежит внутри интервала [Start, End).
func (tr TimeRange) ContainsTime(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}
