package notification

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/agendora/scheduling-core/internal/model"
)

// ErrNonRetryable помечает отказ, после которого повторять отправку
// бессмысленно (например, невалидный получатель). Планировщик в этом случае
// всё равно выставляет флаг «отправлено», чтобы не крутить retry-шторм.
var ErrNonRetryable = errors.New("non-retryable dispatch failure")

// Dispatcher — внешний транспорт сообщений. Ядро принимает только решение
// «отправить сейчас»; провод (WhatsApp и т.п.) живёт за этим интерфейсом.
type Dispatcher interface {
	Send(ctx context.Context, appt *model.Appointment, kind model.ReminderKind) error
}

// LogDispatcher пишет отправку в лог вместо реального транспорта.
// Используется в окружениях без подключённого мессенджера.
type LogDispatcher struct {
	log *zap.Logger
}

func NewLogDispatcher(log *zap.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Send(_ context.Context, appt *model.Appointment, kind model.ReminderKind) error {
	d.log.Info("reminder dispatched",
		zap.String("tenant_id", appt.TenantID),
		zap.String("appointment_id", appt.ID.String()),
		zap.String("kind", string(kind)),
		zap.Time("starts_at", appt.StartsAt),
	)
	return nil
}
