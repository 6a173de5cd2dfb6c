package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agendora/scheduling-core/internal/model"
	"github.com/agendora/scheduling-core/internal/repository"
	"github.com/agendora/scheduling-core/internal/scheduling"
)

func newRecurrenceService(db *gorm.DB) *RecurrenceService {
	return NewRecurrenceService(
		db,
		repository.NewGormAppointmentRepository(db),
		repository.NewGormTenantRepository(db),
	)
}

func seedSeries(t *testing.T, db *gorm.DB, svc *RecurrenceService, freq scheduling.Frequency, untilDays int) (*model.Appointment, *ExpandReport) {
	t.Helper()
	base := seedAppointment(t, db, "t1", "prof-a", mustTime(t, 2, 10, 0), mustTime(t, 2, 11, 0))
	report, err := svc.Expand(context.Background(), "t1", base.ID, scheduling.RecurrenceRule{
		Frequency: freq,
		Until:     base.StartsAt.AddDate(0, 0, untilDays),
	})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	return base, report
}

func TestRecurrenceService_ExpandWeekly(t *testing.T) {
	db := newTestDB(t)
	svc := newRecurrenceService(db)

	base, report := seedSeries(t, db, svc, scheduling.FreqWeekly, 42)

	if len(report.Created) != 6 {
		t.Fatalf("created = %d, want 6", len(report.Created))
	}
	if len(report.Skipped) != 0 {
		t.Fatalf("skipped = %d, want 0", len(report.Skipped))
	}

	// base became the first member of its own series
	stored := reloadAppointment(t, db, base.ID)
	if stored.RecurrenceID == nil || *stored.RecurrenceID != base.ID {
		t.Fatalf("base recurrence id not set")
	}
	if stored.RecurrenceOrder != 1 {
		t.Fatalf("base order = %d, want 1", stored.RecurrenceOrder)
	}

	var members []model.Appointment
	if err := db.Where("recurrence_id = ?", base.ID.String()).
		Order("recurrence_order ASC").Find(&members).Error; err != nil {
		t.Fatalf("load series: %v", err)
	}
	if len(members) != 7 {
		t.Fatalf("series size = %d, want 7 (base + 6)", len(members))
	}
	for i, m := range members {
		if m.RecurrenceOrder != i+1 {
			t.Errorf("member %d: order = %d, want %d", i, m.RecurrenceOrder, i+1)
		}
		want := base.StartsAt.AddDate(0, 0, 7*i)
		if !m.StartsAt.Equal(want) {
			t.Errorf("member %d: starts at %v, want %v", i, m.StartsAt, want)
		}
	}
}

func TestRecurrenceService_ExpandRangeExceededWritesNothing(t *testing.T) {
	db := newTestDB(t)
	svc := newRecurrenceService(db)

	base := seedAppointment(t, db, "t1", "prof-a", mustTime(t, 2, 10, 0), mustTime(t, 2, 11, 0))
	_, err := svc.Expand(context.Background(), "t1", base.ID, scheduling.RecurrenceRule{
		Frequency: scheduling.FreqWeekly,
		Until:     base.StartsAt.AddDate(0, 0, 367),
	})
	if !errors.Is(err, scheduling.ErrRecurrenceRange) {
		t.Fatalf("expected ErrRecurrenceRange, got %v", err)
	}

	if n := countAppointments(t, db, "t1"); n != 1 {
		t.Fatalf("appointments = %d, want 1 (nothing generated)", n)
	}
	if stored := reloadAppointment(t, db, base.ID); stored.RecurrenceID != nil {
		t.Fatalf("base must stay non-recurring on validation failure")
	}
}

func TestRecurrenceService_ExpandPersistsConflictingOccurrencesFlagged(t *testing.T) {
	db := newTestDB(t)
	svc := newRecurrenceService(db)

	// a foreign appointment already sits where the +7d occurrence lands
	other := seedAppointment(t, db, "t1", "prof-a", mustTime(t, 9, 10, 0), mustTime(t, 9, 11, 0))

	base, report := seedSeries(t, db, svc, scheduling.FreqWeekly, 14)

	if len(report.Created) != 1 {
		t.Fatalf("created = %d, want 1", len(report.Created))
	}
	if len(report.Skipped) != 1 {
		t.Fatalf("skipped = %d, want 1", len(report.Skipped))
	}
	sk := report.Skipped[0]
	if sk.Order != 2 || sk.Reason != "conflict" || sk.ConflictingID != other.ID {
		t.Fatalf("unexpected skip report: %+v", sk)
	}

	// the conflicting occurrence is stored anyway, flagged for review
	var flagged model.Appointment
	if err := db.First(&flagged, "recurrence_id = ? AND recurrence_order = ?", base.ID.String(), 2).Error; err != nil {
		t.Fatalf("load flagged occurrence: %v", err)
	}
	if !flagged.ConflictFlagged {
		t.Fatalf("occurrence must carry the conflict flag")
	}
}

func TestRecurrenceService_ExpandAlreadyRecurring(t *testing.T) {
	db := newTestDB(t)
	svc := newRecurrenceService(db)

	base, _ := seedSeries(t, db, svc, scheduling.FreqWeekly, 14)

	_, err := svc.Expand(context.Background(), "t1", base.ID, scheduling.RecurrenceRule{
		Frequency: scheduling.FreqWeekly,
		Until:     base.StartsAt.AddDate(0, 0, 28),
	})
	if !errors.Is(err, ErrAlreadyRecurring) {
		t.Fatalf("expected ErrAlreadyRecurring, got %v", err)
	}
}

func TestRecurrenceService_ExpandBlockRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newRecurrenceService(db)

	b := seedAppointment(t, db, "t1", "prof-a", mustTime(t, 2, 12, 0), mustTime(t, 2, 13, 0))
	if err := db.Model(&model.Appointment{}).Where("id = ?", b.ID.String()).
		Updates(map[string]any{"is_block": true, "status": string(model.AppointmentStatusBlock)}).Error; err != nil {
		t.Fatalf("mark block: %v", err)
	}

	_, err := svc.Expand(context.Background(), "t1", b.ID, scheduling.RecurrenceRule{
		Frequency: scheduling.FreqWeekly,
		Until:     b.StartsAt.AddDate(0, 0, 28),
	})
	if !errors.Is(err, scheduling.ErrBlockRecurrence) {
		t.Fatalf("expected ErrBlockRecurrence, got %v", err)
	}
}

func TestRecurrenceService_ExpandUnknownBase(t *testing.T) {
	db := newTestDB(t)
	svc := newRecurrenceService(db)

	_, err := svc.Expand(context.Background(), "t1", uuid.New(), scheduling.RecurrenceRule{
		Frequency: scheduling.FreqWeekly,
		Until:     mustTime(t, 30, 10, 0),
	})
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestRecurrenceService_CancelSeriesAllFuture(t *testing.T) {
	db := newTestDB(t)
	svc := newRecurrenceService(db)

	// daily series of 5: base + 4 occurrences
	base, report := seedSeries(t, db, svc, scheduling.FreqDaily, 4)
	if len(report.Created) != 4 {
		t.Fatalf("created = %d, want 4", len(report.Created))
	}

	cancelled, err := svc.CancelSeries(context.Background(), "t1", base.ID, 2, ScopeAllFuture)
	if err != nil {
		t.Fatalf("CancelSeries: %v", err)
	}
	if cancelled != 4 {
		t.Fatalf("cancelled = %d, want 4", cancelled)
	}

	// the first occurrence survives
	if stored := reloadAppointment(t, db, base.ID); stored.Status != model.AppointmentStatusScheduled {
		t.Fatalf("order 1 status = %s, want scheduled", stored.Status)
	}

	var remaining int64
	if err := db.Model(&model.Appointment{}).
		Where("recurrence_id = ? AND status = ?", base.ID.String(), string(model.AppointmentStatusCancelled)).
		Count(&remaining).Error; err != nil {
		t.Fatalf("count cancelled: %v", err)
	}
	if remaining != 4 {
		t.Fatalf("cancelled rows = %d, want 4", remaining)
	}

	// idempotent: a second pass finds nothing to cancel
	cancelled, err = svc.CancelSeries(context.Background(), "t1", base.ID, 2, ScopeAllFuture)
	if err != nil {
		t.Fatalf("second CancelSeries: %v", err)
	}
	if cancelled != 0 {
		t.Fatalf("second pass cancelled = %d, want 0", cancelled)
	}
}

func TestRecurrenceService_CancelSeriesSingle(t *testing.T) {
	db := newTestDB(t)
	svc := newRecurrenceService(db)

	base, _ := seedSeries(t, db, svc, scheduling.FreqDaily, 3)

	cancelled, err := svc.CancelSeries(context.Background(), "t1", base.ID, 3, ScopeSingle)
	if err != nil {
		t.Fatalf("CancelSeries single: %v", err)
	}
	if cancelled != 1 {
		t.Fatalf("cancelled = %d, want 1", cancelled)
	}
}

func TestRecurrenceService_CancelUnknownSeries(t *testing.T) {
	db := newTestDB(t)
	svc := newRecurrenceService(db)

	_, err := svc.CancelSeries(context.Background(), "t1", uuid.New(), 1, ScopeAll)
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestRecurrenceService_UpdateSeriesPrice(t *testing.T) {
	db := newTestDB(t)
	svc := newRecurrenceService(db)

	base, _ := seedSeries(t, db, svc, scheduling.FreqDaily, 2)

	price := int64(9900)
	report, err := svc.UpdateSeries(context.Background(), "t1", base.ID, 0, SeriesPatch{PriceCents: &price}, ScopeAll)
	if err != nil {
		t.Fatalf("UpdateSeries: %v", err)
	}
	if len(report.Updated) != 3 || len(report.Skipped) != 0 {
		t.Fatalf("updated=%d skipped=%d, want 3/0", len(report.Updated), len(report.Skipped))
	}

	var members []model.Appointment
	if err := db.Where("recurrence_id = ?", base.ID.String()).Find(&members).Error; err != nil {
		t.Fatalf("load series: %v", err)
	}
	for _, m := range members {
		if m.PriceCents != 9900 {
			t.Fatalf("member order %d price = %d, want 9900", m.RecurrenceOrder, m.PriceCents)
		}
	}
}

func TestRecurrenceService_UpdateSeriesShiftSkipsConflicting(t *testing.T) {
	db := newTestDB(t)
	svc := newRecurrenceService(db)

	base, _ := seedSeries(t, db, svc, scheduling.FreqDaily, 2)

	// an outsider occupies the shifted slot of order 3 (Jun 4, 11:00)
	blocker := seedAppointment(t, db, "t1", "prof-a", mustTime(t, 4, 11, 0), mustTime(t, 4, 12, 0))

	shift := time.Hour
	report, err := svc.UpdateSeries(context.Background(), "t1", base.ID, 2, SeriesPatch{StartShift: &shift}, ScopeAllFuture)
	if err != nil {
		t.Fatalf("UpdateSeries: %v", err)
	}

	if len(report.Updated) != 1 {
		t.Fatalf("updated = %d, want 1", len(report.Updated))
	}
	if len(report.Skipped) != 1 {
		t.Fatalf("skipped = %d, want 1", len(report.Skipped))
	}
	sk := report.Skipped[0]
	if sk.Order != 3 || sk.Reason != "conflict" || sk.ConflictingID != blocker.ID {
		t.Fatalf("unexpected skip report: %+v", sk)
	}

	// order 2 moved, order 3 kept its original time
	var order2, order3 model.Appointment
	if err := db.First(&order2, "recurrence_id = ? AND recurrence_order = ?", base.ID.String(), 2).Error; err != nil {
		t.Fatalf("load order 2: %v", err)
	}
	if err := db.First(&order3, "recurrence_id = ? AND recurrence_order = ?", base.ID.String(), 3).Error; err != nil {
		t.Fatalf("load order 3: %v", err)
	}
	if !order2.StartsAt.Equal(mustTime(t, 3, 11, 0)) {
		t.Fatalf("order 2 starts at %v, want shifted 11:00", order2.StartsAt)
	}
	if !order3.StartsAt.Equal(mustTime(t, 4, 10, 0)) {
		t.Fatalf("order 3 starts at %v, must be untouched", order3.StartsAt)
	}
}

func TestRecurrenceService_UpdateSeriesUnknownScope(t *testing.T) {
	db := newTestDB(t)
	svc := newRecurrenceService(db)

	base, _ := seedSeries(t, db, svc, scheduling.FreqDaily, 2)

	price := int64(100)
	_, err := svc.UpdateSeries(context.Background(), "t1", base.ID, 0, SeriesPatch{PriceCents: &price}, SeriesScope("everything"))
	if !errors.Is(err, scheduling.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
