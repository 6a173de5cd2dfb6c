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
	"github.com/agendora/scheduling-core/internal/notification"
	"github.com/agendora/scheduling-core/internal/repository"
	"github.com/agendora/scheduling-core/internal/scheduling"
)

// Лизинг резервации отправки: пока он жив, другой тик не тронет запись.
// Протухший лизинг (упавший процесс) перехватывается следующим тиком.
const notificationLockLease = 2 * time.Minute

// ReminderEvent — одно принятое решение «отправить сейчас».
type ReminderEvent struct {
	AppointmentID uuid.UUID          `json:"appointmentId"`
	TenantID      string             `json:"tenantId"`
	Kind          model.ReminderKind `json:"reminderKind"`
}

// TickStats — сводка одного прогона для операционного лога.
type TickStats struct {
	Scanned int `json:"scanned"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

type ReminderService struct {
	db         *gorm.DB
	appts      repository.AppointmentRepository
	tenants    repository.TenantRepository
	msgs       repository.MessageLogRepository
	dispatcher notification.Dispatcher
}

func NewReminderService(
	db *gorm.DB,
	appts repository.AppointmentRepository,
	tenants repository.TenantRepository,
	msgs repository.MessageLogRepository,
	dispatcher notification.Dispatcher,
) *ReminderService {
	return &ReminderService{
		db:         db,
		appts:      appts,
		tenants:    tenants,
		msgs:       msgs,
		dispatcher: dispatcher,
	}
}

// Tick — один прогон планировщика напоминаний. Вызывается внешним тикером
// сколь угодно часто: идемпотентность держится на флагах «уже отправлено»
// и краткоживущей резервации, а не на времени последнего прогона.
func (s *ReminderService) Tick(ctx context.Context, now time.Time) ([]ReminderEvent, error) {
	pending, err := s.appts.ListPendingReminders(ctx, now)
	if err != nil {
		return nil, err
	}

	stats := TickStats{Scanned: len(pending)}
	settingsCache := make(map[string]model.TenantSettings)

	var events []ReminderEvent

	for i := range pending {
		appt := &pending[i]

		settings, ok := settingsCache[appt.TenantID]
		if !ok {
			settings, err = s.tenants.GetSettings(ctx, appt.TenantID)
			if err != nil {
				logger.Log.Error("tenant settings load failed",
					zap.String("tenant_id", appt.TenantID), zap.Error(err))
				stats.Errors++
				continue
			}
			settingsCache[appt.TenantID] = settings
		}

		// Арендатор выключил все напоминания: помечаем и больше не сканируем.
		if !settings.Reminder24h && !settings.Reminder1h {
			s.markSkipped(ctx, appt, "reminders_disabled")
			stats.Skipped++
			continue
		}

		if scheduling.RemindersCompleted(appt, settings) {
			s.markNotified(ctx, appt)
			stats.Skipped++
			continue
		}

		// Запись уже началась — из оценки она выпадает навсегда.
		if appt.StartsAt.Before(now) {
			s.markSkipped(ctx, appt, "already_started")
			stats.Skipped++
			continue
		}

		kind, due := scheduling.EvaluateReminder(appt, settings, now)
		if !due {
			stats.Skipped++
			continue
		}

		reserved, err := s.reserve(ctx, appt.TenantID, appt.ID, kind, now)
		if err != nil {
			stats.Errors++
			continue
		}
		if !reserved {
			stats.Skipped++
			continue
		}

		if err := s.dispatcher.Send(ctx, appt, kind); err != nil {
			if errors.Is(err, notification.ErrNonRetryable) {
				// Повторять бессмысленно: выставляем флаг, чтобы не устроить
				// retry-шторм, и фиксируем отказ в операционном логе.
				logger.Log.Error("reminder dispatch rejected permanently",
					zap.String("appointment_id", appt.ID.String()),
					zap.String("kind", string(kind)),
					zap.Error(err))
				s.finishReminder(ctx, appt, kind, settings, now, err.Error(), false)
				stats.Errors++
				continue
			}

			logger.Log.Warn("reminder dispatch failed, will retry next tick",
				zap.String("appointment_id", appt.ID.String()),
				zap.String("kind", string(kind)),
				zap.Error(err))
			s.releaseLock(ctx, appt, err.Error())
			stats.Errors++
			continue
		}

		// Флаг и журнал отправки — одна логическая операция с диспатчем.
		if err := s.finishReminder(ctx, appt, kind, settings, now, "", true); err != nil {
			logger.Log.Error("reminder flag persistence failed",
				zap.String("appointment_id", appt.ID.String()), zap.Error(err))
			stats.Errors++
			continue
		}

		events = append(events, ReminderEvent{
			AppointmentID: appt.ID,
			TenantID:      appt.TenantID,
			Kind:          kind,
		})
		stats.Sent++
	}

	logger.Log.Info("reminder tick finished",
		zap.Int("scanned", stats.Scanned),
		zap.Int("sent", stats.Sent),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors),
	)
	return events, nil
}

// reserve пытается захватить запись под отправку конкретного напоминания.
// Возвращает false, если флаг уже выставлен или живёт чужой лизинг.
func (s *ReminderService) reserve(ctx context.Context, tenantID string, id uuid.UUID, kind model.ReminderKind, now time.Time) (bool, error) {
	reserved := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.appts.WithTx(tx).LockForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}

		if sentFlag(a, kind) {
			return nil
		}
		if a.NotificationLockedAt != nil && now.Sub(*a.NotificationLockedAt) < notificationLockLease {
			return nil
		}

		if err := tx.Model(&model.Appointment{}).
			Where("tenant_id = ? AND id = ?", tenantID, id).
			Updates(map[string]any{
				"notification_locked_kind": string(kind),
				"notification_locked_at":   now,
			}).Error; err != nil {
			return err
		}
		reserved = true
		return nil
	})
	if err != nil {
		logger.Log.Error("reminder reservation failed",
			zap.String("appointment_id", id.String()), zap.Error(err))
		return false, err
	}
	return reserved, nil
}

// finishReminder выставляет флаг отправки, снимает лизинг и, при успешном
// диспатче, дописывает журнал сообщений — всё в одной транзакции.
func (s *ReminderService) finishReminder(
	ctx context.Context,
	appt *model.Appointment,
	kind model.ReminderKind,
	settings model.TenantSettings,
	now time.Time,
	dispatchError string,
	logged bool,
) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"notification_locked_kind": "",
			"notification_locked_at":   nil,
			"notification_error":       dispatchError,
		}
		switch kind {
		case model.Reminder24h:
			updates["reminder24h_sent"] = true
			updates["reminder24h_sent_at"] = now
			appt.Reminder24hSent = true
		case model.Reminder1h:
			updates["reminder1h_sent"] = true
			updates["reminder1h_sent_at"] = now
			appt.Reminder1hSent = true
		default:
			return scheduling.ErrInvalidInput
		}

		if scheduling.RemindersCompleted(appt, settings) {
			updates["notified"] = true
		}

		if err := tx.Model(&model.Appointment{}).
			Where("tenant_id = ? AND id = ?", appt.TenantID, appt.ID).
			Updates(updates).Error; err != nil {
			return err
		}

		if !logged {
			return nil
		}
		return s.msgs.WithTx(tx).Append(ctx, &model.MessageLog{
			ID:            uuid.New(),
			TenantID:      appt.TenantID,
			AppointmentID: appt.ID,
			Kind:          kind,
			SentAt:        now,
		})
	})
}

// releaseLock снимает резервацию после сбоя, оставляя флаг в false:
// следующий тик попробует снова.
func (s *ReminderService) releaseLock(ctx context.Context, appt *model.Appointment, dispatchError string) {
	err := s.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("tenant_id = ? AND id = ?", appt.TenantID, appt.ID).
		Updates(map[string]any{
			"notification_locked_kind": "",
			"notification_locked_at":   nil,
			"notification_error":       dispatchError,
			"notification_retry_count": gorm.Expr("notification_retry_count + 1"),
		}).Error
	if err != nil {
		logger.Log.Error("reminder lock release failed",
			zap.String("appointment_id", appt.ID.String()), zap.Error(err))
	}
}

func (s *ReminderService) markSkipped(ctx context.Context, appt *model.Appointment, reason string) {
	err := s.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("tenant_id = ? AND id = ?", appt.TenantID, appt.ID).
		Updates(map[string]any{
			"notified":                    true,
			"notification_skipped_reason": reason,
			"notification_locked_kind":    "",
			"notification_locked_at":      nil,
		}).Error
	if err != nil {
		logger.Log.Error("reminder skip mark failed",
			zap.String("appointment_id", appt.ID.String()), zap.Error(err))
	}
}

func (s *ReminderService) markNotified(ctx context.Context, appt *model.Appointment) {
	err := s.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("tenant_id = ? AND id = ?", appt.TenantID, appt.ID).
		Updates(map[string]any{
			"notified":                 true,
			"notification_locked_kind": "",
			"notification_locked_at":   nil,
		}).Error
	if err != nil {
		logger.Log.Error("notified mark failed",
			zap.String("appointment_id", appt.ID.String()), zap.Error(err))
	}
}

func sentFlag(a *model.Appointment, kind model.ReminderKind) bool {
	if kind == model.Reminder24h {
		return a.Reminder24hSent
	}
	return a.Reminder1hSent
}
