package handler

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"

	"reconciliation-service/internal/module/reconciliation/models/request"
	"reconciliation-service/internal/module/reconciliation/usecases"
	"reconciliation-service/internal/pkg/errors"
	"reconciliation-service/internal/pkg/helpers"
)

type ReconciliationHandler struct {
	Log       *otelzap.Logger
	Validator *validator.Validate
	Usecase   usecases.Usecase
	Publish   message.Publisher
}

// ConfirmPayment is the payment-return callback. Once the gateway reports a
// successful payment the response is always 200 with a structured result;
// only gateway status failures surface as HTTP errors.
func (h *ReconciliationHandler) ConfirmPayment(ctx *fiber.Ctx) error {
	var req request.PaymentConfirm
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			h.Log.Ctx(ctx.UserContext()).Error(fmt.Sprintf("error parse request: %v", err))
			return helpers.RespError(ctx, h.Log, errors.BadRequest("error parse request"))
		}
	}

	// the gateway redirect may carry the identifiers as query parameters
	if req.MerchantTransactionID == "" {
		req.MerchantTransactionID = ctx.Query("merchant_transaction_id", ctx.Query("transactionId"))
	}
	if req.UserID == 0 {
		req.UserID = int64(ctx.QueryInt("user_id"))
	}

	if err := h.Validator.Struct(req); err != nil {
		h.Log.Ctx(ctx.UserContext()).Error(fmt.Sprintf("error validate request: %v", err))
		return helpers.RespError(ctx, h.Log, errors.BadRequest("error validate request"))
	}

	result, err := h.Usecase.ConfirmPayment(ctx.UserContext(), &req)
	if err != nil {
		h.Log.Ctx(ctx.UserContext()).Error(fmt.Sprintf("error confirm payment: %v", err))
		return helpers.RespError(ctx, h.Log, err)
	}

	return helpers.RespSuccess(ctx, h.Log, result, "payment confirmation processed")
}

// ConsumePaymentCallbackQueue handles the gateway's server-to-server callback
// delivered through the message stream; it runs the same workflow as the
// return-page request, relying on the idempotency guard when both arrive.
func (h *ReconciliationHandler) ConsumePaymentCallbackQueue(msg *message.Message) error {
	msg.Ack() // acknowledge message

	var req request.PaymentConfirm
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		h.Log.Ctx(msg.Context()).Error(fmt.Sprintf("error unmarshal message: %v", err))
		h.publishPoisoned(msg, err)
		return err
	}

	ctx := context.Background()

	if _, err := h.Usecase.ConfirmPayment(ctx, &req); err != nil {
		h.Log.Ctx(msg.Context()).Error(fmt.Sprintf("error consume payment callback: %v", err))
		h.publishPoisoned(msg, err)
		return err
	}

	return nil
}

// RetryPaymentRecord is the asynq task handler for the out-of-band
// payment-record retry scheduled after a partial failure.
func (h *ReconciliationHandler) RetryPaymentRecord(ctx context.Context, t *asynq.Task) error {
	var req request.RetryPaymentRecord
	if err := json.Unmarshal(t.Payload(), &req); err != nil {
		h.Log.Ctx(ctx).Error(fmt.Sprintf("error unmarshal payload: %v", err))
		return err
	}

	if err := h.Validator.Struct(req); err != nil {
		h.Log.Ctx(ctx).Error(fmt.Sprintf("error validate payload: %v", err))
		return err
	}

	if err := h.Usecase.RetryPaymentRecord(ctx, &req); err != nil {
		h.Log.Ctx(ctx).Error(fmt.Sprintf("error retry payment record: %v", err))
		return err
	}

	return nil
}

func (h *ReconciliationHandler) publishPoisoned(msg *message.Message, cause error) {
	reqPoisoned := request.PoisonedQueue{
		TopicTarget: "payment_callback",
		ErrorMsg:    cause.Error(),
		Payload:     msg.Payload,
	}

	jsonPayload, _ := json.Marshal(reqPoisoned)

	if err := h.Publish.Publish("poisoned_queue", message.NewMessage(watermill.NewUUID(), jsonPayload)); err != nil {
		h.Log.Ctx(msg.Context()).Error(fmt.Sprintf("error publish to poison queue: %v", err))
	}
}
