package model

import (
	"time"

	"gorm.io/datatypes"

	"github.com/agendora/scheduling-core/internal/calendar"
)

// Дефолты квоты автоматических сообщений: 200 бесплатных в месяц,
// дальше по 30 сентаво за штуку.
const (
	DefaultFreeMessageLimit      = 200
	DefaultMessageUnitPriceCents = 30
)

// tenant_settings
type TenantSettings struct {
	TenantID string `gorm:"type:varchar(64);primaryKey" json:"tenantId"`

	// Имена полей в JSON исторические, их читает внешний фронт.
	// Без default-тегов: gorm выбрасывает нулевые значения таких полей из
	// INSERT, и выключенный флаг сохранился бы включённым. Дефолты задаёт
	// DefaultTenantSettings.
	Reminder24h bool `gorm:"not null" json:"lembrete24h"`
	Reminder1h  bool `gorm:"not null" json:"lembrete1h"`

	// Рабочее окно: минуты от полуночи локального дня.
	WorkStartMin int `gorm:"not null" json:"workStartMin"`
	WorkEndMin   int `gorm:"not null" json:"workEndMin"`
	// Пустой список — разрешены все дни недели.
	AllowedWeekdays datatypes.JSONSlice[int] `gorm:"type:jsonb" json:"allowedWeekdays"`

	DefaultCommissionPercent float64 `gorm:"not null" json:"commissionPadrao"`

	FreeMessageLimit      int   `gorm:"not null" json:"freeMessageLimit"`
	MessageUnitPriceCents int64 `gorm:"not null" json:"messageUnitPriceCents"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

// DefaultTenantSettings — настройки арендатора, у которого ещё нет записи в БД.
func DefaultTenantSettings(tenantID string) TenantSettings {
	return TenantSettings{
		TenantID:              tenantID,
		Reminder24h:           true,
		Reminder1h:            true,
		WorkStartMin:          calendar.DefaultWorkStartMin,
		WorkEndMin:            calendar.DefaultWorkEndMin,
		FreeMessageLimit:      DefaultFreeMessageLimit,
		MessageUnitPriceCents: DefaultMessageUnitPriceCents,
	}
}

// WorkingHours собирает рабочее окно для детектора конфликтов.
func (s TenantSettings) WorkingHours() calendar.WorkingHours {
	wh := calendar.WorkingHours{StartMin: s.WorkStartMin, EndMin: s.WorkEndMin}
	for _, d := range s.AllowedWeekdays {
		wh.Weekdays = append(wh.Weekdays, time.Weekday(d))
	}
	return wh
}
