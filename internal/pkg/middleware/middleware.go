package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

const HeaderCorrelationID = "X-Correlation-ID"

type Middleware struct {
	Log *otelzap.Logger
}

// CorrelationID tags every reconciliation request so the audit trail, logs
// and downstream collaborator calls can be tied back to one gateway return.
func (m *Middleware) CorrelationID(ctx *fiber.Ctx) error {
	id := ctx.Get(HeaderCorrelationID)
	if id == "" {
		id = uuid.NewString()
	}

	ctx.Locals("correlation_id", id)
	ctx.Set(HeaderCorrelationID, id)

	return ctx.Next()
}
