package model

import (
	"time"

	"github.com/google/uuid"
)

// service_offerings — справочник услуг арендатора.
// Запись копирует duration/price/commission себе при создании,
// поэтому правка справочника не трогает уже созданные записи.
type ServiceOffering struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID string    `gorm:"type:varchar(64);not null;index" json:"tenantId"`

	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	DurationMin       int     `gorm:"not null" json:"durationMinutes"`
	PriceCents        int64   `gorm:"not null" json:"priceCents"`
	CommissionPercent float64 `gorm:"not null;default:0" json:"commissionPercent"`

	Active bool `gorm:"not null;default:true;index" json:"active"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}
