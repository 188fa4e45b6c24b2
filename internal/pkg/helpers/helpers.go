package helpers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"

	"reconciliation-service/internal/pkg/errors"
)

type Response struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func RespSuccess(ctx *fiber.Ctx, log *otelzap.Logger, data interface{}, message string) error {
	return ctx.Status(fiber.StatusOK).JSON(Response{
		Message: message,
		Data:    data,
	})
}

func RespError(ctx *fiber.Ctx, log *otelzap.Logger, err error) error {
	code := errors.CodeOf(err)
	log.Ctx(ctx.UserContext()).Error(fmt.Sprintf("request failed: %v", err))
	return ctx.Status(code).JSON(Response{
		Message: "error",
		Error:   err.Error(),
	})
}

// MajorUnits converts a gateway amount in minor units (paise) to major units.
func MajorUnits(amount int64) float64 {
	return float64(amount) / 100
}
