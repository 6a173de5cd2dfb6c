package model

import (
	"time"

	"github.com/google/uuid"
)

// message_logs — append-only журнал автоматических отправок.
// Месячное использование арендатора пересчитывается отсюда на каждое чтение,
// живого счётчика нет: под конкурентными отправками он бы расходился.
type MessageLog struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID string    `gorm:"type:varchar(64);not null;index:idx_msglog_tenant_sent,priority:1" json:"tenantId"`

	AppointmentID uuid.UUID    `gorm:"type:uuid;not null;index" json:"appointmentId"`
	Kind          ReminderKind `gorm:"type:varchar(8);not null" json:"kind"`

	SentAt time.Time `gorm:"type:timestamp with time zone;not null;index:idx_msglog_tenant_sent,priority:2" json:"sentAt"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"createdAt"`
}
