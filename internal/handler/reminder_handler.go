package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/agendora/scheduling-core/internal/logger"
	"github.com/agendora/scheduling-core/internal/service"
)

type ReminderHandler struct {
	reminders *service.ReminderService
}

func NewReminderHandler(reminders *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminders: reminders}
}

// Tick обрабатывает POST /internal/reminders/tick — ручной запуск прогона
// (вебхук внешнего шедулера). Повторный вызов безопасен: прогон идемпотентен.
func (h *ReminderHandler) Tick(c *fiber.Ctx) error {
	events, err := h.reminders.Tick(c.UserContext(), time.Now().UTC())
	if err != nil {
		logger.Log.Error("manual reminder tick failed", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "try again later")
	}
	return c.JSON(fiber.Map{"events": events})
}
