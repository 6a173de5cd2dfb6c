package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agendora/scheduling-core/internal/model"
)

// newTestDB opens an in-memory sqlite DB with a hand-built schema.
// AutoMigrate is not usable here: the models carry postgres defaults
// (now(), jsonb) that sqlite does not understand.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	schema := []string{
		`CREATE TABLE appointments (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			professional_id TEXT NOT NULL,
			client_id TEXT,
			starts_at DATETIME NOT NULL,
			ends_at DATETIME NOT NULL,
			status TEXT NOT NULL,
			is_block BOOLEAN NOT NULL DEFAULT 0,
			service_ids TEXT,
			service_id TEXT,
			duration_min INTEGER NOT NULL DEFAULT 0,
			price_cents INTEGER NOT NULL DEFAULT 0,
			commission_percent REAL NOT NULL DEFAULT 0,
			commission_base_cents INTEGER NOT NULL DEFAULT 0,
			paid_amount_cents INTEGER,
			recurrence_id TEXT,
			recurrence_order INTEGER NOT NULL DEFAULT 0,
			recurrence_frequency TEXT,
			recurrence_ends_at DATETIME,
			conflict_flagged BOOLEAN NOT NULL DEFAULT 0,
			reminder24h_sent BOOLEAN NOT NULL DEFAULT 0,
			reminder24h_sent_at DATETIME,
			reminder1h_sent BOOLEAN NOT NULL DEFAULT 0,
			reminder1h_sent_at DATETIME,
			notified BOOLEAN NOT NULL DEFAULT 0,
			notification_locked_kind TEXT,
			notification_locked_at DATETIME,
			notification_error TEXT,
			notification_retry_count INTEGER NOT NULL DEFAULT 0,
			notification_skipped_reason TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE tenant_settings (
			tenant_id TEXT PRIMARY KEY,
			reminder24h BOOLEAN NOT NULL DEFAULT 1,
			reminder1h BOOLEAN NOT NULL DEFAULT 1,
			work_start_min INTEGER NOT NULL DEFAULT 480,
			work_end_min INTEGER NOT NULL DEFAULT 1320,
			allowed_weekdays TEXT,
			default_commission_percent REAL NOT NULL DEFAULT 0,
			free_message_limit INTEGER NOT NULL DEFAULT 200,
			message_unit_price_cents INTEGER NOT NULL DEFAULT 30,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE service_offerings (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			duration_min INTEGER NOT NULL,
			price_cents INTEGER NOT NULL,
			commission_percent REAL NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE message_logs (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			appointment_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			sent_at DATETIME NOT NULL,
			created_at DATETIME
		);`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	return db
}

// mustTime: fixed Monday in June, well inside default working hours.
func mustTime(t *testing.T, day, hour, min int) time.Time {
	t.Helper()
	return time.Date(2025, 6, day, hour, min, 0, 0, time.UTC)
}

func seedOffering(t *testing.T, db *gorm.DB, tenantID string, durationMin int, priceCents int64, commissionPct float64) uuid.UUID {
	t.Helper()
	svc := &model.ServiceOffering{
		ID:                uuid.New(),
		TenantID:          tenantID,
		Name:              "offering",
		DurationMin:       durationMin,
		PriceCents:        priceCents,
		CommissionPercent: commissionPct,
		Active:            true,
	}
	if err := db.Create(svc).Error; err != nil {
		t.Fatalf("seed offering: %v", err)
	}
	return svc.ID
}

func seedAppointment(t *testing.T, db *gorm.DB, tenantID, professionalID string, start, end time.Time) *model.Appointment {
	t.Helper()
	appt := &model.Appointment{
		ID:             uuid.New(),
		TenantID:       tenantID,
		ProfessionalID: professionalID,
		ClientID:       "client-1",
		StartsAt:       start,
		EndsAt:         end,
		Status:         model.AppointmentStatusScheduled,
		DurationMin:    int(end.Sub(start).Minutes()),
		PriceCents:     5000,
	}
	if err := db.Create(appt).Error; err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	return appt
}

func reloadAppointment(t *testing.T, db *gorm.DB, id uuid.UUID) *model.Appointment {
	t.Helper()
	var a model.Appointment
	if err := db.First(&a, "id = ?", id.String()).Error; err != nil {
		t.Fatalf("reload appointment: %v", err)
	}
	return &a
}

func countAppointments(t *testing.T, db *gorm.DB, tenantID string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.Appointment{}).Where("tenant_id = ?", tenantID).Count(&n).Error; err != nil {
		t.Fatalf("count appointments: %v", err)
	}
	return n
}

func countMessageLogs(t *testing.T, db *gorm.DB, tenantID string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.MessageLog{}).Where("tenant_id = ?", tenantID).Count(&n).Error; err != nil {
		t.Fatalf("count message logs: %v", err)
	}
	return n
}
