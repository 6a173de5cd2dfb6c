package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/agendora/scheduling-core/internal/model"
)

type MessageLogRepository interface {
	// Добавить факт отправки в журнал.
	Append(ctx context.Context, entry *model.MessageLog) error
	// Количество автоматических сообщений арендатора за календарный месяц.
	CountMonth(ctx context.Context, tenantID string, month time.Time) (int64, error)
	// Репозиторий внутри транзакции tx.
	WithTx(tx *gorm.DB) MessageLogRepository
}

type GormMessageLogRepository struct {
	db *gorm.DB
}

func NewGormMessageLogRepository(db *gorm.DB) *GormMessageLogRepository {
	return &GormMessageLogRepository{db: db}
}

func (r *GormMessageLogRepository) WithTx(tx *gorm.DB) MessageLogRepository {
	return &GormMessageLogRepository{db: tx}
}

func (r *GormMessageLogRepository) Append(ctx context.Context, entry *model.MessageLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormMessageLogRepository) CountMonth(ctx context.Context, tenantID string, month time.Time) (int64, error) {
	from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.MessageLog{}).
		Where("tenant_id = ?", tenantID).
		Where("sent_at >= ? AND sent_at < ?", from, to).
		Count(&count).
		Error
	return count, err
}
