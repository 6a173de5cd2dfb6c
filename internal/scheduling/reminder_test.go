package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/agendora/scheduling-core/internal/model"
)

func reminderAppt(t *testing.T, startsIn time.Duration, now time.Time) *model.Appointment {
	t.Helper()
	start := now.Add(startsIn)
	return &model.Appointment{
		ID:             uuid.New(),
		TenantID:       "t1",
		ProfessionalID: "prof-a",
		StartsAt:       start,
		EndsAt:         start.Add(time.Hour),
		Status:         model.AppointmentStatusScheduled,
	}
}

func TestEvaluateReminder_24hWindow(t *testing.T) {
	now := mustTime(t, 10, 0)
	settings := model.DefaultTenantSettings("t1")

	cases := []struct {
		name     string
		startsIn time.Duration
		wantKind model.ReminderKind
		wantDue  bool
	}{
		{"exactly 24h out", 24 * time.Hour, model.Reminder24h, true},
		{"lower edge 23h", 23 * time.Hour, model.Reminder24h, true},
		{"upper edge 25h", 25 * time.Hour, model.Reminder24h, true},
		{"just past upper edge", 25*time.Hour + time.Minute, "", false},
		{"between windows", 3 * time.Hour, "", false},
		{"exactly 1h out", time.Hour, model.Reminder1h, true},
		{"lower edge 30m", 30 * time.Minute, model.Reminder1h, true},
		{"upper edge 90m", 90 * time.Minute, model.Reminder1h, true},
		{"too close", 20 * time.Minute, "", false},
		{"already started", -10 * time.Minute, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			appt := reminderAppt(t, tc.startsIn, now)
			kind, due := EvaluateReminder(appt, settings, now)
			if due != tc.wantDue || kind != tc.wantKind {
				t.Fatalf("got (%q, %v), want (%q, %v)", kind, due, tc.wantKind, tc.wantDue)
			}
		})
	}
}

func TestEvaluateReminder_FlagsMakeItIdempotent(t *testing.T) {
	now := mustTime(t, 10, 0)
	settings := model.DefaultTenantSettings("t1")

	appt := reminderAppt(t, 24*time.Hour, now)
	appt.Reminder24hSent = true

	if kind, due := EvaluateReminder(appt, settings, now); due {
		t.Fatalf("already-sent reminder must not fire again, got %q", kind)
	}
}

func TestEvaluateReminder_DisabledByTenant(t *testing.T) {
	now := mustTime(t, 10, 0)
	settings := model.DefaultTenantSettings("t1")
	settings.Reminder24h = false

	appt := reminderAppt(t, 24*time.Hour, now)
	if _, due := EvaluateReminder(appt, settings, now); due {
		t.Fatalf("disabled 24h reminder must not fire")
	}

	settings.Reminder1h = false
	appt = reminderAppt(t, time.Hour, now)
	if _, due := EvaluateReminder(appt, settings, now); due {
		t.Fatalf("disabled 1h reminder must not fire")
	}
}

func TestEvaluateReminder_SkipsBlocksAndTerminalStatuses(t *testing.T) {
	now := mustTime(t, 10, 0)
	settings := model.DefaultTenantSettings("t1")

	b := reminderAppt(t, 24*time.Hour, now)
	b.IsBlock = true
	b.Status = model.AppointmentStatusBlock
	if _, due := EvaluateReminder(b, settings, now); due {
		t.Fatalf("blocks must never get reminders")
	}

	for _, st := range []model.AppointmentStatus{model.AppointmentStatusCancelled, model.AppointmentStatusCompleted} {
		appt := reminderAppt(t, 24*time.Hour, now)
		appt.Status = st
		if _, due := EvaluateReminder(appt, settings, now); due {
			t.Fatalf("status %q must not get reminders", st)
		}
	}
}

func TestEvaluateReminder_24hWindowHasPriority(t *testing.T) {
	// windows cannot overlap in real time, but a stale appointment with both
	// flags clear and starts-in inside the 24h window must pick 24h first
	now := mustTime(t, 10, 0)
	settings := model.DefaultTenantSettings("t1")

	appt := reminderAppt(t, 24*time.Hour, now)
	kind, due := EvaluateReminder(appt, settings, now)
	if !due || kind != model.Reminder24h {
		t.Fatalf("expected 24h reminder, got (%q, %v)", kind, due)
	}
}

func TestEvaluateReminder_Missed24hFallsThroughTo1h(t *testing.T) {
	// scheduler was down for a day: the 24h window is gone, the 1h one fires
	now := mustTime(t, 10, 0)
	settings := model.DefaultTenantSettings("t1")

	appt := reminderAppt(t, time.Hour, now)
	kind, due := EvaluateReminder(appt, settings, now)
	if !due || kind != model.Reminder1h {
		t.Fatalf("expected 1h reminder, got (%q, %v)", kind, due)
	}
	if appt.Reminder24hSent {
		t.Fatalf("missed 24h flag must stay untouched")
	}
}

func TestRemindersCompleted(t *testing.T) {
	settings := model.DefaultTenantSettings("t1")
	appt := &model.Appointment{}

	if RemindersCompleted(appt, settings) {
		t.Fatalf("nothing sent yet: not completed")
	}

	appt.Reminder24hSent = true
	if RemindersCompleted(appt, settings) {
		t.Fatalf("1h still pending: not completed")
	}

	appt.Reminder1hSent = true
	if !RemindersCompleted(appt, settings) {
		t.Fatalf("both sent: completed")
	}

	// disabled kinds count as done
	fresh := &model.Appointment{Reminder24hSent: true}
	settings.Reminder1h = false
	if !RemindersCompleted(fresh, settings) {
		t.Fatalf("disabled 1h reminder counts as done")
	}
}
