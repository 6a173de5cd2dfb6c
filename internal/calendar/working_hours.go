package calendar

import "time"

// Дефолтное рабочее окно арендатора: 08:00–22:00, все дни недели.
const (
	DefaultWorkStartMin = 8 * 60
	DefaultWorkEndMin   = 22 * 60
)

// WorkingHours описывает рабочее окно арендатора: минуты от полуночи
// локального дня и множество разрешённых дней недели.
type WorkingHours struct {
	StartMin int
	EndMin   int
	// Пустое множество означает «все дни разрешены».
	Weekdays []time.Weekday
}

// DefaultWorkingHours возвращает окно 08:00–22:00 без ограничений по дням.
func DefaultWorkingHours() WorkingHours {
	return WorkingHours{StartMin: DefaultWorkStartMin, EndMin: DefaultWorkEndMin}
}

// WeekdayAllowed проверяет, разрешён ли день недели.
func (wh WorkingHours) WeekdayAllowed(d time.Weekday) bool {
	if len(wh.Weekdays) == 0 {
		return true
	}
	for _, w := range wh.Weekdays {
		if w == d {
			return true
		}
	}
	return false
}

// Covers проверяет, что интервал целиком лежит в рабочем окне своего дня.
// Интервалы через полночь рабочим окном не покрываются.
func (wh WorkingHours) Covers(tr TimeRange) bool {
	if !wh.WeekdayAllowed(tr.Start.Weekday()) {
		return false
	}

	y1, m1, d1 := tr.Start.Date()
	y2, m2, d2 := tr.End.Add(-time.Nanosecond).Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		return false
	}

	startMin := tr.Start.Hour()*60 + tr.Start.Minute()
	endMin := tr.End.Hour()*60 + tr.End.Minute()
	if tr.End.Second() != 0 || tr.End.Nanosecond() != 0 {
		// конец с секундами округляется вверх: 22:00:59 не помещается в окно до 22:00
		endMin++
	}
	if endMin == 0 {
		// конец ровно в полночь следующего дня
		endMin = 24 * 60
	}

	return startMin >= wh.StartMin && endMin <= wh.EndMin
}
