package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/agendora/scheduling-core/internal/model"
)

type TenantRepository interface {
	// Настройки арендатора; дефолты, если записи ещё нет.
	GetSettings(ctx context.Context, tenantID string) (model.TenantSettings, error)
	// Создать или обновить настройки.
	SaveSettings(ctx context.Context, settings *model.TenantSettings) error
}

type GormTenantRepository struct {
	db *gorm.DB
}

func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

func (r *GormTenantRepository) GetSettings(ctx context.Context, tenantID string) (model.TenantSettings, error) {
	var s model.TenantSettings
	err := r.db.WithContext(ctx).First(&s, "tenant_id = ?", tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DefaultTenantSettings(tenantID), nil
	}
	if err != nil {
		return model.TenantSettings{}, err
	}
	return s, nil
}

func (r *GormTenantRepository) SaveSettings(ctx context.Context, settings *model.TenantSettings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}
