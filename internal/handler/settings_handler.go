package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/agendora/scheduling-core/internal/logger"
	"github.com/agendora/scheduling-core/internal/model"
	"github.com/agendora/scheduling-core/internal/repository"
)

// SettingsHandler — чтение и правка настроек арендатора.
type SettingsHandler struct {
	tenants repository.TenantRepository
}

func NewSettingsHandler(tenants repository.TenantRepository) *SettingsHandler {
	return &SettingsHandler{tenants: tenants}
}

// Get обрабатывает GET /tenants/:tenantID/settings.
// Для арендатора без записи возвращаются дефолты.
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	tenantID := c.Params("tenantID")

	settings, err := h.tenants.GetSettings(c.UserContext(), tenantID)
	if err != nil {
		logger.Log.Error("settings lookup failed",
			zap.String("tenant_id", tenantID), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "try again later")
	}
	return c.JSON(settings)
}

// Update обрабатывает PUT /tenants/:tenantID/settings.
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	tenantID := c.Params("tenantID")

	var body model.TenantSettings
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}

	// идентификатор берём только из пути
	body.TenantID = tenantID

	if body.WorkStartMin < 0 || body.WorkEndMin > 24*60 || body.WorkStartMin >= body.WorkEndMin {
		return fiber.NewError(fiber.StatusBadRequest, "invalid working window")
	}
	if body.FreeMessageLimit < 0 || body.MessageUnitPriceCents < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid quota values")
	}

	if err := h.tenants.SaveSettings(c.UserContext(), &body); err != nil {
		logger.Log.Error("settings save failed",
			zap.String("tenant_id", tenantID), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "try again later")
	}
	return c.JSON(body)
}
