package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/agendora/scheduling-core/internal/model"
)

type ServiceRepository interface {
	// Активные услуги арендатора по списку ID, в порядке запрошенного списка.
	GetActiveByIDs(ctx context.Context, tenantID string, ids []string) ([]model.ServiceOffering, error)
	// Все активные услуги арендатора.
	ListActive(ctx context.Context, tenantID string) ([]model.ServiceOffering, error)
	// Создать услугу.
	Create(ctx context.Context, svc *model.ServiceOffering) error
}

type GormServiceRepository struct {
	db *gorm.DB
}

func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

func (r *GormServiceRepository) GetActiveByIDs(ctx context.Context, tenantID string, ids []string) ([]model.ServiceOffering, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []model.ServiceOffering
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Where("id IN ?", ids).
		Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]model.ServiceOffering, len(found))
	for _, svc := range found {
		byID[svc.ID.String()] = svc
	}

	// Порядок услуг в записи значим — восстанавливаем порядок запроса.
	ordered := make([]model.ServiceOffering, 0, len(ids))
	for _, id := range ids {
		svc, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("service %s not found or inactive", id)
		}
		ordered = append(ordered, svc)
	}

	return ordered, nil
}

func (r *GormServiceRepository) ListActive(ctx context.Context, tenantID string) ([]model.ServiceOffering, error) {
	var svcs []model.ServiceOffering
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("name ASC").
		Find(&svcs).Error; err != nil {
		return nil, err
	}
	return svcs, nil
}

func (r *GormServiceRepository) Create(ctx context.Context, svc *model.ServiceOffering) error {
	return r.db.WithContext(ctx).Create(svc).Error
}
