package scheduling

import (
	"time"

	"github.com/agendora/scheduling-core/internal/model"
)

// ReminderWindow — окно «за сколько минут до начала напоминание считается
// уместным». Окна намеренно широкие: тики планировщика дискретны,
// часы дрейфуют.
type ReminderWindow struct {
	MinMinutes int
	MaxMinutes int
}

var (
	Window24h = ReminderWindow{MinMinutes: 23 * 60, MaxMinutes: 25 * 60}
	Window1h  = ReminderWindow{MinMinutes: 30, MaxMinutes: 90}
)

func (w ReminderWindow) contains(minutes float64) bool {
	return minutes >= float64(w.MinMinutes) && minutes <= float64(w.MaxMinutes)
}

// EvaluateReminder решает, какое напоминание сейчас уместно для записи.
// Чистая функция: идемпотентность обеспечивают флаги «уже отправлено»,
// а не таймстемп последнего прогона. 24-часовое окно имеет приоритет.
func EvaluateReminder(appt *model.Appointment, settings model.TenantSettings, now time.Time) (model.ReminderKind, bool) {
	if appt.IsBlockEntry() {
		return "", false
	}
	switch appt.Status {
	case model.AppointmentStatusCancelled, model.AppointmentStatusCompleted:
		return "", false
	}

	minutesUntil := appt.StartsAt.Sub(now).Minutes()
	if minutesUntil < 0 {
		return "", false
	}

	if settings.Reminder24h && !appt.Reminder24hSent && Window24h.contains(minutesUntil) {
		return model.Reminder24h, true
	}
	if settings.Reminder1h && !appt.Reminder1hSent && Window1h.contains(minutesUntil) {
		return model.Reminder1h, true
	}
	return "", false
}

// RemindersCompleted: все применимые напоминания отправлены либо отключены
// настройками арендатора.
func RemindersCompleted(appt *model.Appointment, settings model.TenantSettings) bool {
	done24 := !settings.Reminder24h || appt.Reminder24hSent
	done1 := !settings.Reminder1h || appt.Reminder1hSent
	return done24 && done1
}
