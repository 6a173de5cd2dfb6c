package service

import (
	"context"
	"time"

	"github.com/agendora/scheduling-core/internal/repository"
	"github.com/agendora/scheduling-core/internal/scheduling"
)

// UsageService — гейт квоты автоматических сообщений. Читающий агрегат:
// счётчик каждый раз пересчитывается из журнала отправок, кэшированного
// значения нет — под конкурентными отправками оно бы врало.
type UsageService struct {
	tenants repository.TenantRepository
	msgs    repository.MessageLogRepository
}

func NewUsageService(tenants repository.TenantRepository, msgs repository.MessageLogRepository) *UsageService {
	return &UsageService{tenants: tenants, msgs: msgs}
}

// MonthlyUsage возвращает использование арендатора за календарный месяц month.
func (s *UsageService) MonthlyUsage(ctx context.Context, tenantID string, month time.Time) (scheduling.Usage, error) {
	settings, err := s.tenants.GetSettings(ctx, tenantID)
	if err != nil {
		return scheduling.Usage{}, err
	}

	count, err := s.msgs.CountMonth(ctx, tenantID, month)
	if err != nil {
		return scheduling.Usage{}, err
	}

	return scheduling.ComputeUsage(int(count), settings.FreeMessageLimit, settings.MessageUnitPriceCents), nil
}
