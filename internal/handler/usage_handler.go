package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/agendora/scheduling-core/internal/logger"
	"github.com/agendora/scheduling-core/internal/service"
)

type UsageHandler struct {
	usage *service.UsageService
}

func NewUsageHandler(usage *service.UsageService) *UsageHandler {
	return &UsageHandler{usage: usage}
}

// Monthly обрабатывает GET /tenants/:tenantID/usage?month=YYYY-MM.
// Без параметра month берётся текущий месяц.
func (h *UsageHandler) Monthly(c *fiber.Ctx) error {
	tenantID := c.Params("tenantID")

	month := time.Now().UTC()
	if raw := c.Query("month"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "month must be YYYY-MM")
		}
		month = parsed
	}

	usage, err := h.usage.MonthlyUsage(c.UserContext(), tenantID, month)
	if err != nil {
		logger.Log.Error("usage lookup failed",
			zap.String("tenant_id", tenantID), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "try again later")
	}
	return c.JSON(usage)
}
