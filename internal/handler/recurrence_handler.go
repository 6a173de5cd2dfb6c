package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agendora/scheduling-core/internal/logger"
	"github.com/agendora/scheduling-core/internal/scheduling"
	"github.com/agendora/scheduling-core/internal/service"
)

type RecurrenceHandler struct {
	recurrences *service.RecurrenceService
}

func NewRecurrenceHandler(recurrences *service.RecurrenceService) *RecurrenceHandler {
	return &RecurrenceHandler{recurrences: recurrences}
}

type expandRequestBody struct {
	Frequency    string    `json:"frequency"`
	IntervalDays int       `json:"intervalDays"`
	Until        time.Time `json:"until"`
}

// Expand обрабатывает POST /tenants/:tenantID/appointments/:id/recurrence.
// Возвращает полный отчёт: созданные окказии и пропущенные с причинами.
func (h *RecurrenceHandler) Expand(c *fiber.Ctx) error {
	tenantID := c.Params("tenantID")
	baseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid appointment id")
	}

	var body expandRequestBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}

	rule := scheduling.RecurrenceRule{
		Frequency:    scheduling.Frequency(body.Frequency),
		IntervalDays: body.IntervalDays,
		Until:        body.Until,
	}

	report, err := h.recurrences.Expand(c.UserContext(), tenantID, baseID, rule)
	if err != nil {
		return writeRecurrenceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

type seriesUpdateBody struct {
	Scope     string              `json:"scope"`
	FromOrder int                 `json:"fromOrder"`
	Patch     service.SeriesPatch `json:"patch"`
}

// UpdateSeries обрабатывает POST /tenants/:tenantID/recurrences/:recurrenceID/update.
func (h *RecurrenceHandler) UpdateSeries(c *fiber.Ctx) error {
	tenantID := c.Params("tenantID")
	recurrenceID, err := uuid.Parse(c.Params("recurrenceID"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid recurrence id")
	}

	var body seriesUpdateBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}

	report, err := h.recurrences.UpdateSeries(
		c.UserContext(),
		tenantID,
		recurrenceID,
		body.FromOrder,
		body.Patch,
		service.SeriesScope(body.Scope),
	)
	if err != nil {
		return writeRecurrenceError(c, err)
	}
	return c.JSON(report)
}

type seriesCancelBody struct {
	Scope     string `json:"scope"`
	FromOrder int    `json:"fromOrder"`
}

// CancelSeries обрабатывает POST /tenants/:tenantID/recurrences/:recurrenceID/cancel.
func (h *RecurrenceHandler) CancelSeries(c *fiber.Ctx) error {
	tenantID := c.Params("tenantID")
	recurrenceID, err := uuid.Parse(c.Params("recurrenceID"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid recurrence id")
	}

	var body seriesCancelBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}

	cancelled, err := h.recurrences.CancelSeries(
		c.UserContext(),
		tenantID,
		recurrenceID,
		body.FromOrder,
		service.SeriesScope(body.Scope),
	)
	if err != nil {
		return writeRecurrenceError(c, err)
	}
	return c.JSON(fiber.Map{"cancelled": cancelled})
}

func writeRecurrenceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrAppointmentNotFound):
		return fiber.NewError(fiber.StatusNotFound, "appointment not found")
	case errors.Is(err, service.ErrAlreadyRecurring):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"ok":    false,
			"error": "already_recurring",
		})
	case errors.Is(err, scheduling.ErrRecurrenceRange):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"ok":    false,
			"error": "recurrence_range_exceeded",
		})
	case errors.Is(err, scheduling.ErrRecurrenceEndRequired),
		errors.Is(err, scheduling.ErrBlockRecurrence),
		errors.Is(err, scheduling.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok":    false,
			"error": "invalid_input",
		})
	}

	logger.Log.Error("recurrence operation failed", zap.Error(err))
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"ok":    false,
		"error": "temporary_failure",
	})
}
