package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/agendora/scheduling-core/internal/logger"
	"github.com/agendora/scheduling-core/internal/model"
	"github.com/agendora/scheduling-core/internal/repository"
	"github.com/agendora/scheduling-core/internal/scheduling"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// Количество повторов check-then-write при конкуренции на уровне хранилища.
// Бизнес-отказы (конфликт интервала, невалидный ввод) не ретраятся.
const maxBookRetries = 3

// BookRequest — входные данные бронирования.
// Для блокировок EndsAt обязателен и список услуг пуст;
// для обычных записей конец вычисляется из суммарной длительности услуг.
type BookRequest struct {
	TenantID       string
	ProfessionalID string
	ClientID       string

	StartsAt time.Time
	EndsAt   time.Time

	ServiceIDs                []string
	PriceOverrideCents        *int64
	CommissionOverridePercent *float64

	IsBlock  bool
	BlockAll bool
}

type BookingService struct {
	db       *gorm.DB
	appts    repository.AppointmentRepository
	tenants  repository.TenantRepository
	services repository.ServiceRepository
}

func NewBookingService(
	db *gorm.DB,
	appts repository.AppointmentRepository,
	tenants repository.TenantRepository,
	services repository.ServiceRepository,
) *BookingService {
	return &BookingService{
		db:       db,
		appts:    appts,
		tenants:  tenants,
		services: services,
	}
}

// EvaluateBooking — проверка без записи: та же логика, что и Book,
// но результат не фиксируется. Для превью в UI.
func (s *BookingService) EvaluateBooking(ctx context.Context, req BookRequest) error {
	appt, settings, err := s.buildAppointment(ctx, req)
	if err != nil {
		return err
	}

	existing, err := s.appts.ListConflictCandidates(ctx, appt.TenantID, appt.ProfessionalID, appt.StartsAt, appt.EndsAt)
	if err != nil {
		return err
	}

	return scheduling.CheckConflict(proposalFor(appt), existing, settings.WorkingHours())
}

// Book выполняет check-then-write в одной транзакции: чтение кандидатов под
// блокировкой и вставка атомарны относительно других писателей того же
// специалиста. При контеншене хранилища — ограниченный повтор.
func (s *BookingService) Book(ctx context.Context, req BookRequest) (*model.Appointment, error) {
	appt, settings, err := s.buildAppointment(ctx, req)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxBookRetries; attempt++ {
		txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txRepo := s.appts.WithTx(tx)

			// Row-lock чтения не защищает от конкурентной вставки в пустое
			// окно, поэтому писатели дня сериализуются advisory-блокировкой.
			if err := txRepo.AcquireSlotLock(ctx, appt.TenantID, appt.StartsAt); err != nil {
				return err
			}

			existing, err := txRepo.ListConflictCandidatesForUpdate(ctx, appt.TenantID, appt.ProfessionalID, appt.StartsAt, appt.EndsAt)
			if err != nil {
				return err
			}

			if err := scheduling.CheckConflict(proposalFor(appt), existing, settings.WorkingHours()); err != nil {
				return err
			}

			return txRepo.Create(ctx, appt)
		})

		if txErr == nil {
			return appt, nil
		}
		if isBusinessError(txErr) {
			return nil, txErr
		}

		lastErr = txErr
		logger.Log.Warn("booking transaction retry",
			zap.String("tenant_id", appt.TenantID),
			zap.Int("attempt", attempt+1),
			zap.Error(txErr),
		)
	}

	logger.Log.Error("booking failed after retries",
		zap.String("tenant_id", appt.TenantID),
		zap.Error(lastErr),
	)
	return nil, errors.Join(scheduling.ErrPersistenceConflict, lastErr)
}

// ListRange возвращает записи арендатора за период — календарная сетка.
func (s *BookingService) ListRange(ctx context.Context, tenantID string, from, to time.Time, limit, offset int) ([]model.Appointment, int64, error) {
	if tenantID == "" || from.IsZero() || to.IsZero() || !to.After(from) {
		return nil, 0, scheduling.ErrInvalidInput
	}
	return s.appts.ListByTenantRange(ctx, tenantID, from, to, limit, offset)
}

// Cancel переводит запись в cancelled; блокировки удаляются физически.
func (s *BookingService) Cancel(ctx context.Context, tenantID string, id uuid.UUID) error {
	appt, err := s.appts.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAppointmentNotFound
		}
		return err
	}

	if appt.IsBlockEntry() {
		return s.appts.DeleteBlock(ctx, tenantID, id)
	}
	return s.appts.UpdateStatus(ctx, tenantID, id, model.AppointmentStatusCancelled)
}

// buildAppointment валидирует запрос и собирает модель записи,
// включая снимок услуг и агрегацию длительности/цены/комиссии.
func (s *BookingService) buildAppointment(ctx context.Context, req BookRequest) (*model.Appointment, model.TenantSettings, error) {
	if req.TenantID == "" || req.StartsAt.IsZero() {
		return nil, model.TenantSettings{}, scheduling.ErrInvalidInput
	}
	if !req.IsBlock && req.ProfessionalID == "" {
		return nil, model.TenantSettings{}, scheduling.ErrInvalidInput
	}

	settings, err := s.tenants.GetSettings(ctx, req.TenantID)
	if err != nil {
		return nil, model.TenantSettings{}, err
	}

	appt := &model.Appointment{
		ID:             uuid.New(),
		TenantID:       req.TenantID,
		ProfessionalID: req.ProfessionalID,
		ClientID:       req.ClientID,
		StartsAt:       req.StartsAt,
		Status:         model.AppointmentStatusScheduled,
	}

	if req.IsBlock {
		if req.EndsAt.IsZero() || !req.EndsAt.After(req.StartsAt) {
			return nil, model.TenantSettings{}, scheduling.ErrInvalidInput
		}
		appt.IsBlock = true
		appt.Status = model.AppointmentStatusBlock
		appt.EndsAt = req.EndsAt
		appt.Notified = true // блокировки никогда не уведомляются
		if req.BlockAll {
			appt.ProfessionalID = model.ProfessionalAll
		}
		if appt.ProfessionalID == "" {
			return nil, model.TenantSettings{}, scheduling.ErrInvalidInput
		}
		return appt, settings, nil
	}

	if len(req.ServiceIDs) == 0 {
		return nil, model.TenantSettings{}, scheduling.ErrEmptyServiceList
	}

	offerings, err := s.services.GetActiveByIDs(ctx, req.TenantID, req.ServiceIDs)
	if err != nil {
		return nil, model.TenantSettings{}, err
	}

	snapshots := make([]scheduling.ServiceSnapshot, 0, len(offerings))
	for _, o := range offerings {
		pct := o.CommissionPercent
		if pct == 0 {
			pct = settings.DefaultCommissionPercent
		}
		snapshots = append(snapshots, scheduling.ServiceSnapshot{
			ID:                o.ID.String(),
			DurationMin:       o.DurationMin,
			PriceCents:        o.PriceCents,
			CommissionPercent: pct,
		})
	}

	agg, err := scheduling.AggregateServices(snapshots, scheduling.AggregateOptions{
		PriceOverrideCents:        req.PriceOverrideCents,
		CommissionOverridePercent: req.CommissionOverridePercent,
	})
	if err != nil {
		return nil, model.TenantSettings{}, err
	}

	appt.ServiceIDs = req.ServiceIDs
	appt.ServiceID = req.ServiceIDs[0]
	appt.DurationMin = agg.DurationMin
	appt.PriceCents = agg.PriceCents
	appt.EndsAt = req.StartsAt.Add(time.Duration(agg.DurationMin) * time.Minute)

	// Комиссия фиксируется снимком на момент записи: правки справочника
	// задним числом финансовые итоги не меняют.
	appt.CommissionBaseCents = agg.CommissionBaseCents
	if req.CommissionOverridePercent != nil {
		appt.CommissionPercent = *req.CommissionOverridePercent
	} else if agg.PriceCents > 0 {
		appt.CommissionPercent = float64(agg.CommissionBaseCents) / float64(agg.PriceCents) * 100
	}

	return appt, settings, nil
}

func proposalFor(appt *model.Appointment) scheduling.Proposal {
	return scheduling.Proposal{
		TenantID:       appt.TenantID,
		ProfessionalID: appt.ProfessionalID,
		Range:          appt.Range(),
		RecurrenceID:   appt.RecurrenceID,
	}
}

// isBusinessError: отказы предметной области не ретраятся.
func isBusinessError(err error) bool {
	if _, ok := scheduling.AsConflict(err); ok {
		return true
	}
	return errors.Is(err, scheduling.ErrInvalidInput) ||
		errors.Is(err, scheduling.ErrEmptyServiceList) ||
		errors.Is(err, scheduling.ErrOutsideWorkingHours)
}
