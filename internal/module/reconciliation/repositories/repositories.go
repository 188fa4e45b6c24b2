package repositories

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	circuit "github.com/rubyist/circuitbreaker"

	"reconciliation-service/config"
	"reconciliation-service/internal/module/reconciliation/models/entity"
	"reconciliation-service/internal/module/reconciliation/models/request"
	"reconciliation-service/internal/module/reconciliation/models/response"
	"reconciliation-service/internal/pkg/errors"
	"reconciliation-service/internal/pkg/log"
	"reconciliation-service/internal/pkg/scheduler"
)

const (
	gatewayStatusPath  = "/pg/v1/status/%s/%s"
	processedKeyPrefix = "reconciliation:processed:"
	processedKeyTTL    = 24 * time.Hour
	referenceLockTTL   = 30 * time.Second
	maxDiagnosticBody  = 512
)

type repositories struct {
	db              *sqlx.DB
	log             log.Logger
	httpClient      *circuit.HTTPClient
	redisClient     *redis.Client
	locker          *redsync.Redsync
	schedulerClient *asynq.Client
	cfgGateway      *config.GatewayConfig
	cfgBooking      *config.BookingServiceConfig
	cfgPayment      *config.PaymentServiceConfig
	cfgMail         *config.MailServiceConfig
}

type Repositories interface {
	// gateway
	GetTransactionStatus(ctx context.Context, merchantTransactionID string) (response.GatewayStatus, error)
	// booking service
	FindBookingsByReference(ctx context.Context, bookingRef string) ([]response.BookingLookup, error)
	CreateBooking(ctx context.Context, payload *entity.BookingPayload) (int64, error)
	// payment service
	CreatePaymentRecord(ctx context.Context, record *entity.PaymentRecord) (int64, error)
	// notifications
	FindTicketDetails(ctx context.Context, bookingRef string) ([]response.TicketRow, error)
	SendEmail(ctx context.Context, email *request.Email) error
	// redis
	GetProcessedBooking(ctx context.Context, bookingRef string) (int64, bool, error)
	MarkReferenceProcessed(ctx context.Context, bookingRef string, bookingID int64) error
	LockReference(ctx context.Context, bookingRef string) (func(), error)
	// db
	InsertReconciliationLog(ctx context.Context, logRow *entity.ReconciliationLog) error
	// scheduler
	ScheduleRetryPaymentRecord(ctx context.Context, payload *request.RetryPaymentRecord, delay time.Duration) (string, error)
}

func New(db *sqlx.DB, logger log.Logger, httpClient *circuit.HTTPClient, redisClient *redis.Client, locker *redsync.Redsync, schedulerClient *asynq.Client, cfg *config.Config) Repositories {
	r := &repositories{
		db:              db,
		log:             logger,
		httpClient:      httpClient,
		redisClient:     redisClient,
		locker:          locker,
		schedulerClient: schedulerClient,
	}
	if cfg != nil {
		r.cfgGateway = &cfg.Gateway
		r.cfgBooking = &cfg.BookingService
		r.cfgPayment = &cfg.PaymentService
		r.cfgMail = &cfg.MailService
	}
	return r
}

// GetTransactionStatus implements Repositories.
func (r *repositories) GetTransactionStatus(ctx context.Context, merchantTransactionID string) (response.GatewayStatus, error) {
	path := fmt.Sprintf(gatewayStatusPath, r.cfgGateway.MerchantID, merchantTransactionID)
	url := r.cfgGateway.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return response.GatewayStatus{}, errors.GatewayUnavailable("error build status request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", VerifyChecksum(path, r.cfgGateway.SaltKey, r.cfgGateway.SaltIndex))
	req.Header.Set("X-MERCHANT-ID", r.cfgGateway.MerchantID)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return response.GatewayStatus{}, errors.GatewayUnavailable(fmt.Sprintf("error query gateway status: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return response.GatewayStatus{}, errors.GatewayUnavailable("error read gateway response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return response.GatewayStatus{}, errors.GatewayUnavailable(fmt.Sprintf("gateway status %d: %s", resp.StatusCode, truncate(body)))
	}

	var status response.GatewayStatus
	if err := json.Unmarshal(body, &status); err != nil {
		// 2xx with an unparseable body: ambiguous, logged, never booked on.
		r.log.Error(ctx, "gateway returned 2xx with non-JSON body", truncate(body))
		return response.GatewayStatus{}, errors.GatewayResponseInvalid(fmt.Sprintf("error decode gateway response: %s", truncate(body)))
	}

	return status, nil
}

// VerifyChecksum builds the gateway integrity header:
// hex(sha256(path+saltKey)) + "###" + saltIndex.
func VerifyChecksum(path, saltKey, saltIndex string) string {
	sum := sha256.Sum256([]byte(path + saltKey))
	return hex.EncodeToString(sum[:]) + "###" + saltIndex
}

// FindBookingsByReference implements Repositories.
func (r *repositories) FindBookingsByReference(ctx context.Context, bookingRef string) ([]response.BookingLookup, error) {
	url := r.cfgBooking.BaseURL + "/api/v1/bookings/lookup"

	body, err := r.postJSON(ctx, url, map[string]string{"booking_ref_id": bookingRef})
	if err != nil {
		return nil, err
	}

	var bookings []response.BookingLookup
	if err := json.Unmarshal(body, &bookings); err != nil {
		return nil, errors.InternalServerError("error decode booking lookup response")
	}
	return bookings, nil
}

// CreateBooking implements Repositories.
func (r *repositories) CreateBooking(ctx context.Context, payload *entity.BookingPayload) (int64, error) {
	url := r.cfgBooking.BaseURL + "/api/v1/bookings"

	body, err := r.postJSON(ctx, url, payload)
	if err != nil {
		return 0, errors.BookingCreationFailed(err.Error())
	}

	bookingID, err := ExtractBookingID(body)
	if err != nil {
		return 0, errors.BookingCreationFailed(err.Error())
	}
	return bookingID, nil
}

// ExtractBookingID normalizes the booking service's inconsistent response
// shape: a single object or a single-element array, with the id under either
// "booking_id" or "id".
func ExtractBookingID(body []byte) (int64, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err == nil {
		return bookingIDFromObject(obj)
	}

	var arr []map[string]json.RawMessage
	if err := json.Unmarshal(body, &arr); err == nil {
		if len(arr) == 0 {
			return 0, fmt.Errorf("booking response array is empty")
		}
		return bookingIDFromObject(arr[0])
	}

	return 0, fmt.Errorf("booking response is neither object nor array: %s", truncate(body))
}

func bookingIDFromObject(obj map[string]json.RawMessage) (int64, error) {
	for _, key := range []string{"booking_id", "id"} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var id int64
		if err := json.Unmarshal(raw, &id); err == nil && id > 0 {
			return id, nil
		}
	}
	return 0, fmt.Errorf("booking response has no booking id")
}

// CreatePaymentRecord implements Repositories.
func (r *repositories) CreatePaymentRecord(ctx context.Context, record *entity.PaymentRecord) (int64, error) {
	url := r.cfgPayment.BaseURL + "/api/v1/payments"

	body, err := r.postJSON(ctx, url, record)
	if err != nil {
		return 0, errors.PaymentRecordCreationFailed(err.Error())
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return 0, errors.PaymentRecordCreationFailed("error decode payment record response")
	}
	return created.ID, nil
}

// FindTicketDetails implements Repositories.
func (r *repositories) FindTicketDetails(ctx context.Context, bookingRef string) ([]response.TicketRow, error) {
	url := r.cfgBooking.BaseURL + "/api/v1/tickets/" + bookingRef

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.InternalServerError("error build ticket lookup request")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, errors.InternalServerError(fmt.Sprintf("error ticket lookup: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.InternalServerError("error read ticket lookup response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.InternalServerError(fmt.Sprintf("ticket lookup status %d", resp.StatusCode))
	}

	var rows []response.TicketRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, errors.InternalServerError("error decode ticket lookup response")
	}
	return rows, nil
}

// SendEmail implements Repositories.
func (r *repositories) SendEmail(ctx context.Context, email *request.Email) error {
	url := r.cfgMail.BaseURL + "/api/v1/mail/send"

	if email.Settings == nil {
		email.Settings = map[string]string{}
	}
	if _, ok := email.Settings["from_name"]; !ok {
		email.Settings["from_name"] = r.cfgMail.FromName
	}
	if _, ok := email.Settings["from_address"]; !ok {
		email.Settings["from_address"] = r.cfgMail.FromAddress
	}

	body, err := r.postJSON(ctx, url, email)
	if err != nil {
		return err
	}

	var result response.MailResult
	if err := json.Unmarshal(body, &result); err != nil {
		return errors.InternalServerError("error decode mail transport response")
	}
	if !result.Success {
		return errors.InternalServerError(fmt.Sprintf("mail transport rejected message: %s", result.Error))
	}
	return nil
}

// GetProcessedBooking implements Repositories. Secondary, best-effort cache
// in front of the authoritative booking lookup.
func (r *repositories) GetProcessedBooking(ctx context.Context, bookingRef string) (int64, bool, error) {
	data, err := r.redisClient.Get(ctx, processedKeyPrefix+bookingRef).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.InternalServerError("error get processed reference")
	}
	return data, true, nil
}

// MarkReferenceProcessed implements Repositories.
func (r *repositories) MarkReferenceProcessed(ctx context.Context, bookingRef string, bookingID int64) error {
	err := r.redisClient.Set(ctx, processedKeyPrefix+bookingRef, bookingID, processedKeyTTL).Err()
	if err != nil {
		return errors.InternalServerError("error mark reference processed")
	}
	return nil
}

// LockReference implements Repositories. The lock narrows the check-then-create
// window across replicas; it is best effort and callers proceed without it.
func (r *repositories) LockReference(ctx context.Context, bookingRef string) (func(), error) {
	mutex := r.locker.NewMutex("reconciliation:lock:"+bookingRef,
		redsync.WithExpiry(referenceLockTTL),
		redsync.WithTries(1),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, errors.InternalServerError(fmt.Sprintf("error lock reference: %v", err))
	}
	unlock := func() {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			r.log.Warn(ctx, "error unlock reference", err)
		}
	}
	return unlock, nil
}

// InsertReconciliationLog implements Repositories.
func (r *repositories) InsertReconciliationLog(ctx context.Context, logRow *entity.ReconciliationLog) error {
	if logRow.ID == uuid.Nil {
		logRow.ID = uuid.New()
	}
	if logRow.CreatedAt.IsZero() {
		logRow.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO reconciliation_log (id, booking_ref, merchant_transaction_id, transaction_id, amount, stage, booking_id, booking_created, payment_created, error_message, created_at)
		VALUES (:id, :booking_ref, :merchant_transaction_id, :transaction_id, :amount, :stage, :booking_id, :booking_created, :payment_created, :error_message, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, logRow)
	if err != nil {
		return errors.InternalServerError("error insert reconciliation log")
	}
	return nil
}

// ScheduleRetryPaymentRecord implements Repositories.
func (r *repositories) ScheduleRetryPaymentRecord(ctx context.Context, payload *request.RetryPaymentRecord, delay time.Duration) (string, error) {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return "", errors.InternalServerError("error marshal retry payload")
	}

	task := asynq.NewTask(scheduler.TypeRetryPaymentRecord, jsonPayload)
	info, err := r.schedulerClient.EnqueueContext(ctx, task, asynq.ProcessIn(delay))
	if err != nil {
		return "", errors.InternalServerError("error enqueue retry task")
	}
	return info.ID, nil
}

func (r *repositories) postJSON(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.InternalServerError("error marshal request payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return nil, errors.InternalServerError("error build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, errors.InternalServerError(fmt.Sprintf("error call %s: %v", url, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.InternalServerError("error read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.InternalServerError(fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, truncate(body)))
	}
	return body, nil
}

func truncate(body []byte) string {
	if len(body) > maxDiagnosticBody {
		return string(body[:maxDiagnosticBody]) + "..."
	}
	return string(body)
}
