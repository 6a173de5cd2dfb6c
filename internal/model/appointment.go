package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/agendora/scheduling-core/internal/calendar"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusBlock     AppointmentStatus = "block"
)

// ProfessionalAll — сентинел «блокировка для всех специалистов».
const ProfessionalAll = "__all__"

type ReminderKind string

const (
	Reminder24h ReminderKind = "24h"
	Reminder1h  ReminderKind = "1h"
)

// appointments
type Appointment struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID string    `gorm:"type:varchar(64);not null;index:idx_appt_tenant_start,priority:1" json:"tenantId"`

	ProfessionalID string `gorm:"type:varchar(64);not null;index" json:"professionalId"`
	ClientID       string `gorm:"type:varchar(64)" json:"clientId,omitempty"`

	StartsAt time.Time `gorm:"type:timestamp with time zone;not null;index:idx_appt_tenant_start,priority:2" json:"start"`
	EndsAt   time.Time `gorm:"type:timestamp with time zone;not null" json:"end"`

	Status  AppointmentStatus `gorm:"type:varchar(32);not null;index" json:"status"`
	IsBlock bool              `gorm:"not null;default:false;index" json:"isBlock"`

	// Снимок услуг на момент записи: живые справочники дальше не читаем.
	ServiceIDs  datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"serviceIds"`
	ServiceID   string                      `gorm:"type:varchar(64)" json:"serviceId,omitempty"`
	DurationMin int                         `gorm:"not null;default:0" json:"durationMinutes"`

	PriceCents          int64   `gorm:"not null;default:0" json:"priceCents"`
	CommissionPercent   float64 `gorm:"not null;default:0" json:"commissionPercent"`
	CommissionBaseCents int64   `gorm:"not null;default:0" json:"commissionBaseCents"`
	PaidAmountCents     *int64  `json:"paidAmountCents,omitempty"`

	// Связь с серией повторений.
	RecurrenceID        *uuid.UUID `gorm:"type:uuid;index" json:"recurrenceId,omitempty"`
	RecurrenceOrder     int        `gorm:"not null;default:0" json:"recurrenceOrder,omitempty"`
	RecurrenceFrequency string     `gorm:"type:varchar(16)" json:"recurrenceFrequency,omitempty"`
	RecurrenceEndsAt    *time.Time `gorm:"type:timestamp with time zone" json:"recurrenceEndsAt,omitempty"`
	// Окказия сгенерирована, но на момент генерации конфликтовала.
	ConflictFlagged bool `gorm:"not null;default:false" json:"conflictFlagged,omitempty"`

	// Флаги напоминаний монотонны: false -> true, обратно планировщик их не сбрасывает.
	Reminder24hSent   bool       `gorm:"column:reminder24h_sent;not null;default:false" json:"reminder24hSent"`
	Reminder24hSentAt *time.Time `gorm:"column:reminder24h_sent_at" json:"reminder24hSentAt,omitempty"`
	Reminder1hSent    bool       `gorm:"column:reminder1h_sent;not null;default:false" json:"reminder1hSent"`
	Reminder1hSentAt  *time.Time `gorm:"column:reminder1h_sent_at" json:"reminder1hSentAt,omitempty"`

	// Итоговый флаг «все применимые напоминания отработаны».
	Notified bool `gorm:"not null;default:false;index" json:"notified"`

	// Резервация отправки: краткоживущий lease, защищает от конкурентных тиков.
	NotificationLockedKind    string     `gorm:"type:varchar(8)" json:"-"`
	NotificationLockedAt      *time.Time `json:"-"`
	NotificationError         string     `gorm:"type:text" json:"-"`
	NotificationRetryCount    int        `gorm:"not null;default:0" json:"-"`
	NotificationSkippedReason string     `gorm:"type:varchar(64)" json:"-"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

// IsBlockEntry — единственная точка диспетчеризации «запись или блокировка».
// Бизнес-логика не должна проверять поля по отдельности.
func (a *Appointment) IsBlockEntry() bool {
	return a.IsBlock || a.Status == AppointmentStatusBlock
}

// BlocksAllProfessionals — блокировка с охватом на всю компанию.
func (a *Appointment) BlocksAllProfessionals() bool {
	return a.IsBlockEntry() && a.ProfessionalID == ProfessionalAll
}

// Range возвращает интервал записи.
func (a *Appointment) Range() calendar.TimeRange {
	return calendar.TimeRange{Start: a.StartsAt, End: a.EndsAt}
}

// OccupiesSlot — участвует ли запись в детекции конфликтов.
// Отменённые и завершённые записи время не держат.
func (a *Appointment) OccupiesSlot() bool {
	if a.IsBlockEntry() {
		return true
	}
	return a.Status == AppointmentStatusScheduled || a.Status == AppointmentStatusConfirmed
}
