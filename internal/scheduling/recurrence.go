package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/agendora/scheduling-core/internal/model"
)

type Frequency string

const (
	FreqDaily    Frequency = "daily"
	FreqWeekly   Frequency = "weekly"
	FreqBiweekly Frequency = "biweekly"
	FreqMonthly  Frequency = "monthly"
	FreqCustom   Frequency = "custom"
)

// Жёсткий потолок серии: 366 дней, чтобы покрыть високосные годы.
// Продуктовый лимит — «один год».
const MaxRecurrenceSpan = 366 * 24 * time.Hour

// RecurrenceRule описывает правило повторения записи.
// IntervalDays используется только при FreqCustom (1..365).
type RecurrenceRule struct {
	Frequency    Frequency
	IntervalDays int
	Until        time.Time
}

// Validate проверяет правило относительно старта базовой записи.
func (r RecurrenceRule) Validate(start time.Time) error {
	switch r.Frequency {
	case FreqDaily, FreqWeekly, FreqBiweekly, FreqMonthly:
	case FreqCustom:
		if r.IntervalDays < 1 || r.IntervalDays > 365 {
			return ErrInvalidInput
		}
	default:
		return ErrInvalidInput
	}

	if r.Until.IsZero() {
		return ErrRecurrenceEndRequired
	}
	if !r.Until.After(start) {
		return ErrInvalidInput
	}
	if r.Until.Sub(start) > MaxRecurrenceSpan {
		return ErrRecurrenceRange
	}
	return nil
}

func (r RecurrenceRule) next(t time.Time) time.Time {
	switch r.Frequency {
	case FreqDaily:
		return t.AddDate(0, 0, 1)
	case FreqWeekly:
		return t.AddDate(0, 0, 7)
	case FreqBiweekly:
		return t.AddDate(0, 0, 14)
	case FreqMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, r.IntervalDays)
	}
}

// ExpandRecurrence разворачивает правило в клоны базовой записи.
// База получает RecurrenceOrder = 1, клоны — 2..N; RecurrenceID серии —
// идентификатор базы. Клоны наследуют длительность и коммерческие поля,
// флаги напоминаний сбрасываются. Ни одна окказия не генерируется,
// если правило невалидно.
func ExpandRecurrence(base *model.Appointment, rule RecurrenceRule) ([]model.Appointment, error) {
	if base == nil {
		return nil, ErrInvalidInput
	}
	if base.IsBlockEntry() {
		return nil, ErrBlockRecurrence
	}
	if err := rule.Validate(base.StartsAt); err != nil {
		return nil, err
	}

	duration := base.EndsAt.Sub(base.StartsAt)
	if duration <= 0 {
		return nil, ErrInvalidInput
	}

	seriesID := base.ID
	var occurrences []model.Appointment

	order := 1
	for cur := rule.next(base.StartsAt); !cur.After(rule.Until); cur = rule.next(cur) {
		order++

		occ := *base
		occ.ID = uuid.New()
		occ.StartsAt = cur
		occ.EndsAt = cur.Add(duration)
		occ.RecurrenceID = &seriesID
		occ.RecurrenceOrder = order
		occ.RecurrenceFrequency = string(rule.Frequency)
		until := rule.Until
		occ.RecurrenceEndsAt = &until
		occ.Status = model.AppointmentStatusScheduled
		occ.ConflictFlagged = false
		occ.Reminder24hSent = false
		occ.Reminder24hSentAt = nil
		occ.Reminder1hSent = false
		occ.Reminder1hSentAt = nil
		occ.Notified = false
		occ.NotificationLockedKind = ""
		occ.NotificationLockedAt = nil
		occ.NotificationError = ""
		occ.NotificationRetryCount = 0
		occ.NotificationSkippedReason = ""

		occurrences = append(occurrences, occ)
	}

	return occurrences, nil
}
