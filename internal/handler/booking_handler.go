package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/agendora/scheduling-core/internal/logger"
	"github.com/agendora/scheduling-core/internal/scheduling"
	"github.com/agendora/scheduling-core/internal/service"
)

// BookingHandler — HTTP-поверхность бронирования.
type BookingHandler struct {
	bookings *service.BookingService
}

func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

type bookRequestBody struct {
	ProfessionalID            string    `json:"professionalId"`
	ClientID                  string    `json:"clientId"`
	Start                     time.Time `json:"start"`
	End                       time.Time `json:"end"`
	ServiceIDs                []string  `json:"serviceIds"`
	PriceOverrideCents        *int64    `json:"priceOverrideCents"`
	CommissionOverridePercent *float64  `json:"commissionOverridePercent"`
	IsBlock                   bool      `json:"isBlock"`
	BlockAll                  bool      `json:"blockAll"`
	// true — только проверить, без записи.
	DryRun bool `json:"dryRun"`
}

// Create обрабатывает POST /tenants/:tenantID/appointments.
// Конфликт — ожидаемый исход: 409 с идентификатором записи-виновника.
func (h *BookingHandler) Create(c *fiber.Ctx) error {
	tenantID := c.Params("tenantID")

	var body bookRequestBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}

	req := service.BookRequest{
		TenantID:                  tenantID,
		ProfessionalID:            body.ProfessionalID,
		ClientID:                  body.ClientID,
		StartsAt:                  body.Start,
		EndsAt:                    body.End,
		ServiceIDs:                body.ServiceIDs,
		PriceOverrideCents:        body.PriceOverrideCents,
		CommissionOverridePercent: body.CommissionOverridePercent,
		IsBlock:                   body.IsBlock,
		BlockAll:                  body.BlockAll,
	}

	if body.DryRun {
		if err := h.bookings.EvaluateBooking(c.UserContext(), req); err != nil {
			return writeBookingError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true})
	}

	appt, err := h.bookings.Book(c.UserContext(), req)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(appt)
}

// List обрабатывает GET /tenants/:tenantID/appointments?from=&to=&limit=&offset=.
// Календарная сетка за период, границы в RFC3339.
func (h *BookingHandler) List(c *fiber.Ctx) error {
	tenantID := c.Params("tenantID")

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "from must be RFC3339")
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "to must be RFC3339")
	}

	appts, total, err := h.bookings.ListRange(
		c.UserContext(),
		tenantID,
		from, to,
		c.QueryInt("limit", 0),
		c.QueryInt("offset", 0),
	)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(fiber.Map{"items": appts, "total": total})
}

// Cancel обрабатывает POST /tenants/:tenantID/appointments/:id/cancel.
func (h *BookingHandler) Cancel(c *fiber.Ctx) error {
	tenantID := c.Params("tenantID")
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid appointment id")
	}

	if err := h.bookings.Cancel(c.UserContext(), tenantID, id); err != nil {
		if errors.Is(err, service.ErrAppointmentNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "appointment not found")
		}
		logger.Log.Error("cancel failed", zap.String("tenant_id", tenantID), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "try again later")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// writeBookingError переводит ошибки ядра в структурированные HTTP-ответы:
// конфликт и невалидный ввод получают actionable-причину, инфраструктурные
// ошибки — generic retry-later.
func writeBookingError(c *fiber.Ctx, err error) error {
	if ce, ok := scheduling.AsConflict(err); ok {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"ok":            false,
			"error":         "scheduling_conflict",
			"conflictingId": ce.ConflictingID,
		})
	}

	switch {
	case errors.Is(err, scheduling.ErrInvalidInput),
		errors.Is(err, scheduling.ErrEmptyServiceList):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok":    false,
			"error": "invalid_input",
		})
	case errors.Is(err, scheduling.ErrOutsideWorkingHours):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"ok":    false,
			"error": "outside_working_hours",
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.NewError(fiber.StatusNotFound, "not found")
	}

	logger.Log.Error("booking failed", zap.Error(err))
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"ok":    false,
		"error": "temporary_failure",
	})
}
