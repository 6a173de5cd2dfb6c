package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agendora/scheduling-core/internal/logger"
	"github.com/agendora/scheduling-core/internal/model"
	"github.com/agendora/scheduling-core/internal/repository"
)

// CatalogHandler — справочник услуг арендатора.
type CatalogHandler struct {
	services repository.ServiceRepository
}

func NewCatalogHandler(services repository.ServiceRepository) *CatalogHandler {
	return &CatalogHandler{services: services}
}

// List обрабатывает GET /tenants/:tenantID/services — активные услуги.
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	tenantID := c.Params("tenantID")

	svcs, err := h.services.ListActive(c.UserContext(), tenantID)
	if err != nil {
		logger.Log.Error("service list failed",
			zap.String("tenant_id", tenantID), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "try again later")
	}
	return c.JSON(svcs)
}

type createServiceBody struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	DurationMin       int     `json:"durationMinutes"`
	PriceCents        int64   `json:"priceCents"`
	CommissionPercent float64 `json:"commissionPercent"`
}

// Create обрабатывает POST /tenants/:tenantID/services.
func (h *CatalogHandler) Create(c *fiber.Ctx) error {
	tenantID := c.Params("tenantID")

	var body createServiceBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}
	if body.Name == "" || body.DurationMin < 0 || body.PriceCents < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid service definition")
	}
	if body.CommissionPercent < 0 || body.CommissionPercent > 100 {
		return fiber.NewError(fiber.StatusBadRequest, "commission must be within 0..100")
	}

	svc := &model.ServiceOffering{
		ID:                uuid.New(),
		TenantID:          tenantID,
		Name:              body.Name,
		Description:       body.Description,
		DurationMin:       body.DurationMin,
		PriceCents:        body.PriceCents,
		CommissionPercent: body.CommissionPercent,
		Active:            true,
	}
	if err := h.services.Create(c.UserContext(), svc); err != nil {
		logger.Log.Error("service create failed",
			zap.String("tenant_id", tenantID), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "try again later")
	}
	return c.Status(fiber.StatusCreated).JSON(svc)
}
