package handler

import (
	"github.com/gofiber/fiber/v2"
	recoverMiddleware "github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupRoutes регистрирует все маршруты ядра.
func SetupRoutes(
	app *fiber.App,
	bookings *BookingHandler,
	recurrences *RecurrenceHandler,
	reminders *ReminderHandler,
	usage *UsageHandler,
	settings *SettingsHandler,
	catalog *CatalogHandler,
) {
	app.Use(recoverMiddleware.New())

	tenant := app.Group("/tenants/:tenantID")
	tenant.Get("/appointments", bookings.List)
	tenant.Post("/appointments", bookings.Create)
	tenant.Post("/appointments/:id/cancel", bookings.Cancel)
	tenant.Post("/appointments/:id/recurrence", recurrences.Expand)
	tenant.Post("/recurrences/:recurrenceID/update", recurrences.UpdateSeries)
	tenant.Post("/recurrences/:recurrenceID/cancel", recurrences.CancelSeries)
	tenant.Get("/usage", usage.Monthly)
	tenant.Get("/settings", settings.Get)
	tenant.Put("/settings", settings.Update)
	tenant.Get("/services", catalog.List)
	tenant.Post("/services", catalog.Create)

	app.Post("/internal/reminders/tick", reminders.Tick)
}
