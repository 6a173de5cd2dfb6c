package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/agendora/scheduling-core/internal/logger"
	"github.com/agendora/scheduling-core/internal/model"
	"github.com/agendora/scheduling-core/internal/repository"
	"github.com/agendora/scheduling-core/internal/scheduling"
)

var ErrAlreadyRecurring = errors.New("appointment already belongs to a series")

// SeriesScope — охват операции над серией. Явный параметр, не выводится
// из состояния записи.
type SeriesScope string

const (
	ScopeSingle    SeriesScope = "single"
	ScopeAllFuture SeriesScope = "all-future"
	ScopeAll       SeriesScope = "all"
)

// SkippedOccurrence — окказия, не прошедшая проверку конфликтов.
// При создании серии такие окказии всё равно сохраняются (с флагом),
// при правке серии — пропускаются. В обоих случаях вызывающий получает
// полный список с причинами.
type SkippedOccurrence struct {
	Order         int       `json:"order"`
	Reason        string    `json:"reason"`
	ConflictingID uuid.UUID `json:"conflictingId,omitempty"`
}

// ExpandReport — итог разворачивания серии.
type ExpandReport struct {
	Created []model.Appointment `json:"created"`
	Skipped []SkippedOccurrence `json:"skipped"`
}

// SeriesPatch — правка, применяемая к окказиям серии.
type SeriesPatch struct {
	ProfessionalID    *string        `json:"professionalId,omitempty"`
	ClientID          *string        `json:"clientId,omitempty"`
	StartShift        *time.Duration `json:"startShift,omitempty"`
	PriceCents        *int64         `json:"priceCents,omitempty"`
	CommissionPercent *float64       `json:"commissionPercent,omitempty"`
}

// SeriesUpdateReport — итог правки серии.
type SeriesUpdateReport struct {
	Updated []uuid.UUID         `json:"updated"`
	Skipped []SkippedOccurrence `json:"skipped"`
}

type RecurrenceService struct {
	db      *gorm.DB
	appts   repository.AppointmentRepository
	tenants repository.TenantRepository
}

func NewRecurrenceService(
	db *gorm.DB,
	appts repository.AppointmentRepository,
	tenants repository.TenantRepository,
) *RecurrenceService {
	return &RecurrenceService{db: db, appts: appts, tenants: tenants}
}

// Expand разворачивает правило над существующей записью и сохраняет серию.
// Конфликтующие окказии не отбрасываются молча: они сохраняются с флагом
// ConflictFlagged и попадают в Skipped с причиной, чтобы вызывающий решил,
// что с ними делать.
func (s *RecurrenceService) Expand(ctx context.Context, tenantID string, baseID uuid.UUID, rule scheduling.RecurrenceRule) (*ExpandReport, error) {
	base, err := s.appts.GetByID(ctx, tenantID, baseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	if base.RecurrenceID != nil {
		return nil, ErrAlreadyRecurring
	}

	// Вся валидация правила — до какой-либо записи в БД.
	occurrences, err := scheduling.ExpandRecurrence(base, rule)
	if err != nil {
		return nil, err
	}

	settings, err := s.tenants.GetSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	hours := settings.WorkingHours()

	report := &ExpandReport{}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.appts.WithTx(tx)

		// База становится первой окказией серии.
		seriesID := base.ID
		base.RecurrenceID = &seriesID
		base.RecurrenceOrder = 1
		base.RecurrenceFrequency = string(rule.Frequency)
		until := rule.Until
		base.RecurrenceEndsAt = &until
		if err := txRepo.Update(ctx, base); err != nil {
			return err
		}

		for i := range occurrences {
			occ := &occurrences[i]

			if err := txRepo.AcquireSlotLock(ctx, tenantID, occ.StartsAt); err != nil {
				return err
			}

			existing, err := txRepo.ListConflictCandidates(ctx, tenantID, occ.ProfessionalID, occ.StartsAt, occ.EndsAt)
			if err != nil {
				return err
			}

			checkErr := scheduling.CheckConflict(proposalFor(occ), existing, hours)
			switch {
			case checkErr == nil:
			case errors.Is(checkErr, scheduling.ErrOutsideWorkingHours):
				occ.ConflictFlagged = true
				report.Skipped = append(report.Skipped, SkippedOccurrence{
					Order:  occ.RecurrenceOrder,
					Reason: "outside_working_hours",
				})
			default:
				if ce, ok := scheduling.AsConflict(checkErr); ok {
					occ.ConflictFlagged = true
					report.Skipped = append(report.Skipped, SkippedOccurrence{
						Order:         occ.RecurrenceOrder,
						Reason:        "conflict",
						ConflictingID: ce.ConflictingID,
					})
				} else {
					return checkErr
				}
			}

			if err := txRepo.Create(ctx, occ); err != nil {
				return err
			}
			if !occ.ConflictFlagged {
				report.Created = append(report.Created, *occ)
			}
		}

		return nil
	})
	if txErr != nil {
		logger.Log.Error("recurrence expand failed",
			zap.String("tenant_id", tenantID),
			zap.String("base_id", baseID.String()),
			zap.Error(txErr),
		)
		return nil, txErr
	}

	return report, nil
}

// UpdateSeries применяет патч к окказиям серии в заданном охвате.
// Каждая окказия проходит read-validate-write по той же дисциплине,
// что и одиночная запись; конфликтующие пропускаются и попадают в отчёт.
// Частичное применение допустимо — атомарность на всю серию не требуется.
func (s *RecurrenceService) UpdateSeries(
	ctx context.Context,
	tenantID string,
	recurrenceID uuid.UUID,
	fromOrder int,
	patch SeriesPatch,
	scope SeriesScope,
) (*SeriesUpdateReport, error) {
	members, err := s.selectScope(ctx, tenantID, recurrenceID, fromOrder, scope)
	if err != nil {
		return nil, err
	}

	settings, err := s.tenants.GetSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	hours := settings.WorkingHours()

	report := &SeriesUpdateReport{}

	for i := range members {
		occ := members[i]
		applyPatch(&occ, patch)

		txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txRepo := s.appts.WithTx(tx)

			if err := txRepo.AcquireSlotLock(ctx, tenantID, occ.StartsAt); err != nil {
				return err
			}

			existing, err := txRepo.ListConflictCandidatesForUpdate(ctx, tenantID, occ.ProfessionalID, occ.StartsAt, occ.EndsAt)
			if err != nil {
				return err
			}
			if err := scheduling.CheckConflict(proposalFor(&occ), existing, hours); err != nil {
				return err
			}
			return txRepo.Update(ctx, &occ)
		})

		switch {
		case txErr == nil:
			report.Updated = append(report.Updated, occ.ID)
		case errors.Is(txErr, scheduling.ErrOutsideWorkingHours):
			report.Skipped = append(report.Skipped, SkippedOccurrence{
				Order:  occ.RecurrenceOrder,
				Reason: "outside_working_hours",
			})
		default:
			if ce, ok := scheduling.AsConflict(txErr); ok {
				report.Skipped = append(report.Skipped, SkippedOccurrence{
					Order:         occ.RecurrenceOrder,
					Reason:        "conflict",
					ConflictingID: ce.ConflictingID,
				})
				continue
			}
			return report, txErr
		}
	}

	return report, nil
}

// CancelSeries отменяет окказии серии в заданном охвате.
// Отмена — переход статуса, не удаление. Возвращает число отменённых.
func (s *RecurrenceService) CancelSeries(
	ctx context.Context,
	tenantID string,
	recurrenceID uuid.UUID,
	fromOrder int,
	scope SeriesScope,
) (int, error) {
	members, err := s.selectScope(ctx, tenantID, recurrenceID, fromOrder, scope)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for i := range members {
		occ := &members[i]
		if occ.Status == model.AppointmentStatusCancelled {
			continue
		}
		if err := s.appts.UpdateStatus(ctx, tenantID, occ.ID, model.AppointmentStatusCancelled); err != nil {
			return cancelled, err
		}
		cancelled++
	}

	logger.Log.Info("series cancelled",
		zap.String("tenant_id", tenantID),
		zap.String("recurrence_id", recurrenceID.String()),
		zap.String("scope", string(scope)),
		zap.Int("cancelled", cancelled),
	)
	return cancelled, nil
}

func (s *RecurrenceService) selectScope(
	ctx context.Context,
	tenantID string,
	recurrenceID uuid.UUID,
	fromOrder int,
	scope SeriesScope,
) ([]model.Appointment, error) {
	all, err := s.appts.ListSeries(ctx, tenantID, recurrenceID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrAppointmentNotFound
	}

	switch scope {
	case ScopeAll:
		return all, nil
	case ScopeAllFuture:
		var out []model.Appointment
		for _, a := range all {
			if a.RecurrenceOrder >= fromOrder {
				out = append(out, a)
			}
		}
		return out, nil
	case ScopeSingle:
		for _, a := range all {
			if a.RecurrenceOrder == fromOrder {
				return []model.Appointment{a}, nil
			}
		}
		return nil, ErrAppointmentNotFound
	default:
		return nil, scheduling.ErrInvalidInput
	}
}

func applyPatch(occ *model.Appointment, patch SeriesPatch) {
	if patch.ProfessionalID != nil {
		occ.ProfessionalID = *patch.ProfessionalID
	}
	if patch.ClientID != nil {
		occ.ClientID = *patch.ClientID
	}
	if patch.StartShift != nil {
		occ.StartsAt = occ.StartsAt.Add(*patch.StartShift)
		occ.EndsAt = occ.EndsAt.Add(*patch.StartShift)
	}
	if patch.PriceCents != nil {
		occ.PriceCents = *patch.PriceCents
	}
	if patch.CommissionPercent != nil {
		occ.CommissionPercent = *patch.CommissionPercent
	}
	// Снимок базы комиссии следует за новой ценой/процентом.
	if patch.PriceCents != nil || patch.CommissionPercent != nil {
		occ.CommissionBaseCents = int64(math.Round(float64(occ.PriceCents) * occ.CommissionPercent / 100))
	}
}
