package usecases

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"reconciliation-service/config"
	"reconciliation-service/internal/module/reconciliation/models/entity"
	"reconciliation-service/internal/module/reconciliation/models/request"
	"reconciliation-service/internal/module/reconciliation/models/response"
	"reconciliation-service/internal/module/reconciliation/repositories"
	"reconciliation-service/internal/pkg/helpers"
	"reconciliation-service/internal/pkg/log"
)

const (
	gatewayCodeSuccess = "PAYMENT_SUCCESS"
	gatewayCodePending = "PAYMENT_PENDING"
	stateCompleted     = "COMPLETED"

	topicPaymentReconciled = "payment_reconciled"

	retryPaymentDelay = 5 * time.Minute
)

type usecase struct {
	repo    repositories.Repositories
	log     log.Logger
	publish message.Publisher
	cfg     *config.Config
}

type Usecase interface {
	ConfirmPayment(ctx context.Context, payload *request.PaymentConfirm) (response.ReconciliationResult, error)
	RetryPaymentRecord(ctx context.Context, payload *request.RetryPaymentRecord) error
}

func New(repo repositories.Repositories, log log.Logger, publish message.Publisher, cfg *config.Config) Usecase {
	return &usecase{
		repo:    repo,
		log:     log,
		publish: publish,
		cfg:     cfg,
	}
}

// ConfirmPayment turns the gateway's answer for one transaction into a single
// durable booking + payment record. Terminal outcomes are reported in the
// result, not as errors; only pre-booking gateway failures return an error.
func (u *usecase) ConfirmPayment(ctx context.Context, payload *request.PaymentConfirm) (response.ReconciliationResult, error) {
	status, err := u.repo.GetTransactionStatus(ctx, payload.MerchantTransactionID)
	if err != nil {
		return response.ReconciliationResult{}, err
	}

	amount := helpers.MajorUnits(status.Data.Amount)

	if !IsTransactionSuccessful(status, u.cfg.Gateway.IsSandbox()) {
		result := response.ReconciliationResult{
			Stage:  response.StageNotSuccessful,
			Amount: amount,
		}
		u.audit(ctx, status, payload.MerchantTransactionID, "", result)
		return result, nil
	}

	transactionID := status.Data.TransactionID
	if transactionID == "" {
		transactionID = payload.MerchantTransactionID
	}
	bookingRef := BookingReference(transactionID)

	// The customer has paid. From here a client disconnect must not abandon
	// the writes, so the remaining steps run detached from the inbound
	// request's cancellation.
	ctx = context.WithoutCancel(ctx)

	if result, done := u.checkAlreadyProcessed(ctx, payload, status, bookingRef, amount); done {
		return result, nil
	}

	unlock, err := u.repo.LockReference(ctx, bookingRef)
	if err != nil {
		// Same trade-off as a failed idempotency lookup: proceed rather than
		// refuse to book a paying customer.
		u.log.Warn(ctx, "error lock booking reference, proceeding unlocked", err)
	} else {
		defer unlock()
	}

	bookingPayload := AssembleBookingPayload(status, payload.Draft, bookingRef, payload.UserID, &u.cfg.App)

	bookingID, err := u.repo.CreateBooking(ctx, bookingPayload)
	if err != nil {
		u.log.Error(ctx, "error create booking", err)
		result := response.ReconciliationResult{
			Stage:             response.StageBookingFailed,
			PaymentSuccessful: true,
			BookingRef:        bookingRef,
			Amount:            amount,
			Error:             err.Error(),
		}
		u.audit(ctx, status, payload.MerchantTransactionID, bookingRef, result)
		return result, nil
	}

	if err := u.repo.MarkReferenceProcessed(ctx, bookingRef, bookingID); err != nil {
		u.log.Warn(ctx, "error mark reference processed", err)
	}

	record := &entity.PaymentRecord{
		BookingID:            bookingID,
		TransactionID:        payload.MerchantTransactionID,
		PhonepeTransactionID: status.Data.TransactionID,
		Amount:               amount,
		PaymentMethod:        entity.PaymentMethodGateway,
		PaymentStatus:        entity.PaymentStatusPaid,
		PaymentDate:          time.Now().UTC().Format("2006-01-02 15:04:05"),
		GatewayResponse: entity.GatewayResponse{
			Code:         status.Code,
			State:        status.Data.State,
			ResponseCode: status.Data.ResponseCode,
			Amount:       status.Data.Amount,
		},
	}

	if _, err := u.repo.CreatePaymentRecord(ctx, record); err != nil {
		u.log.Error(ctx, "error create payment record", err)
		result := response.ReconciliationResult{
			Stage:             response.StagePartialFailure,
			PaymentSuccessful: true,
			BookingCreated:    true,
			PaymentCreated:    false,
			BookingID:         bookingID,
			BookingRef:        bookingRef,
			Amount:            amount,
			Error:             err.Error(),
		}
		u.schedulePaymentRetry(ctx, bookingID, bookingRef, payload.MerchantTransactionID, status)
		u.audit(ctx, status, payload.MerchantTransactionID, bookingRef, result)
		u.publishReconciled(ctx, result)
		return result, nil
	}

	u.dispatchNotifications(ctx, payload.Draft, bookingPayload, bookingID, bookingRef, amount)

	result := response.ReconciliationResult{
		Stage:             response.StageSuccess,
		PaymentSuccessful: true,
		BookingCreated:    true,
		PaymentCreated:    true,
		BookingID:         bookingID,
		BookingRef:        bookingRef,
		Amount:            amount,
	}
	u.audit(ctx, status, payload.MerchantTransactionID, bookingRef, result)
	u.publishReconciled(ctx, result)
	return result, nil
}

// checkAlreadyProcessed is the idempotency guard: redis cache first, then the
// authoritative booking lookup. A lookup failure logs and lets the workflow
// proceed; duplicate prevention is best effort by design.
func (u *usecase) checkAlreadyProcessed(ctx context.Context, payload *request.PaymentConfirm, status response.GatewayStatus, bookingRef string, amount float64) (response.ReconciliationResult, bool) {
	if cachedID, found, err := u.repo.GetProcessedBooking(ctx, bookingRef); err != nil {
		u.log.Warn(ctx, "error probe processed-reference cache", err)
	} else if found {
		return response.ReconciliationResult{
			Stage:             response.StageAlreadyProcessed,
			PaymentSuccessful: true,
			BookingCreated:    true,
			PaymentCreated:    true,
			BookingID:         cachedID,
			BookingRef:        bookingRef,
			Amount:            amount,
		}, true
	}

	bookings, err := u.repo.FindBookingsByReference(ctx, bookingRef)
	if err != nil {
		u.log.Warn(ctx, "error lookup booking by reference, proceeding to create", err)
		return response.ReconciliationResult{}, false
	}
	if len(bookings) == 0 {
		return response.ReconciliationResult{}, false
	}

	existing := bookings[0]
	if err := u.repo.MarkReferenceProcessed(ctx, bookingRef, existing.BookingID); err != nil {
		u.log.Warn(ctx, "error mark reference processed", err)
	}

	result := response.ReconciliationResult{
		Stage:             response.StageAlreadyProcessed,
		PaymentSuccessful: true,
		BookingCreated:    true,
		PaymentCreated:    true,
		BookingID:         existing.BookingID,
		BookingRef:        existing.BookingRef,
		Amount:            amount,
	}
	u.audit(ctx, status, payload.MerchantTransactionID, bookingRef, result)
	return result, true
}

// RetryPaymentRecord is the out-of-band reconciliation job for partial
// failures. Returning an error lets asynq retry with backoff.
func (u *usecase) RetryPaymentRecord(ctx context.Context, payload *request.RetryPaymentRecord) error {
	record := &entity.PaymentRecord{
		BookingID:            payload.BookingID,
		TransactionID:        payload.MerchantTransactionID,
		PhonepeTransactionID: payload.TransactionID,
		Amount:               helpers.MajorUnits(payload.Amount),
		PaymentMethod:        entity.PaymentMethodGateway,
		PaymentStatus:        entity.PaymentStatusPaid,
		PaymentDate:          time.Now().UTC().Format("2006-01-02 15:04:05"),
		GatewayResponse: entity.GatewayResponse{
			State:        payload.State,
			ResponseCode: payload.ResponseCode,
			Amount:       payload.Amount,
		},
	}

	if _, err := u.repo.CreatePaymentRecord(ctx, record); err != nil {
		u.log.Error(ctx, "error retry payment record", err)
		return err
	}

	logRow := &entity.ReconciliationLog{
		BookingRef:            payload.BookingRef,
		MerchantTransactionID: payload.MerchantTransactionID,
		TransactionID:         payload.TransactionID,
		Amount:                payload.Amount,
		Stage:                 response.StageSuccess,
		BookingID:             sql.NullInt64{Int64: payload.BookingID, Valid: true},
		BookingCreated:        true,
		PaymentCreated:        true,
	}
	if err := u.repo.InsertReconciliationLog(ctx, logRow); err != nil {
		u.log.Warn(ctx, "error write reconciliation log", err)
	}
	return nil
}

// IsTransactionSuccessful decides whether the gateway response counts as a
// completed payment. The pending-as-success branch compensates for a sandbox
// simulator quirk and is keyed off the validated environment enum; it can
// never be reached in production.
func IsTransactionSuccessful(status response.GatewayStatus, sandbox bool) bool {
	if !status.Success {
		return false
	}
	if status.Data.State == stateCompleted || status.Code == gatewayCodeSuccess {
		return true
	}
	if sandbox && status.Code == gatewayCodePending {
		return true
	}
	return false
}

func (u *usecase) schedulePaymentRetry(ctx context.Context, bookingID int64, bookingRef, merchantTransactionID string, status response.GatewayStatus) {
	retry := &request.RetryPaymentRecord{
		BookingID:             bookingID,
		BookingRef:            bookingRef,
		TransactionID:         status.Data.TransactionID,
		MerchantTransactionID: merchantTransactionID,
		Amount:                status.Data.Amount,
		State:                 status.Data.State,
		ResponseCode:          status.Data.ResponseCode,
	}
	taskID, err := u.repo.ScheduleRetryPaymentRecord(ctx, retry, retryPaymentDelay)
	if err != nil {
		u.log.Error(ctx, "error schedule payment record retry", err)
		return
	}
	u.log.Info(ctx, fmt.Sprintf("scheduled payment record retry task %s for booking %d", taskID, bookingID))
}

func (u *usecase) audit(ctx context.Context, status response.GatewayStatus, merchantTransactionID, bookingRef string, result response.ReconciliationResult) {
	logRow := &entity.ReconciliationLog{
		BookingRef:            bookingRef,
		MerchantTransactionID: merchantTransactionID,
		TransactionID:         status.Data.TransactionID,
		Amount:                status.Data.Amount,
		Stage:                 result.Stage,
		BookingCreated:        result.BookingCreated,
		PaymentCreated:        result.PaymentCreated,
	}
	if result.BookingID != 0 {
		logRow.BookingID = sql.NullInt64{Int64: result.BookingID, Valid: true}
	}
	if result.Error != "" {
		logRow.ErrorMessage = sql.NullString{String: result.Error, Valid: true}
	}
	if err := u.repo.InsertReconciliationLog(ctx, logRow); err != nil {
		u.log.Warn(ctx, "error write reconciliation log", err)
	}
}

func (u *usecase) publishReconciled(ctx context.Context, result response.ReconciliationResult) {
	if u.publish == nil {
		return
	}
	jsonPayload, err := json.Marshal(result)
	if err != nil {
		u.log.Warn(ctx, "error marshal reconciled event", err)
		return
	}
	if err := u.publish.Publish(topicPaymentReconciled, message.NewMessage(watermill.NewUUID(), jsonPayload)); err != nil {
		u.log.Warn(ctx, "error publish reconciled event", err)
	}
}
