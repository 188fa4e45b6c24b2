package router

import (
	"github.com/gofiber/fiber/v2"

	"reconciliation-service/internal/module/reconciliation/handler"
	"reconciliation-service/internal/pkg/middleware"
)

func Initialize(app *fiber.App, handlerReconciliation *handler.ReconciliationHandler, m *middleware.Middleware) *fiber.App {

	// health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("OK")
	})

	Api := app.Group("/api")

	// payment-return callback; the gateway redirects with GET, the
	// confirmation page posts the draft with POST
	v1 := Api.Group("/v1")
	v1.Post("/payment/confirm", m.CorrelationID, handlerReconciliation.ConfirmPayment)
	v1.Get("/payment/confirm", m.CorrelationID, handlerReconciliation.ConfirmPayment)

	return app

}
