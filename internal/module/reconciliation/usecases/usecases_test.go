package usecases_test

import (
	"context"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"reconciliation-service/config"
	"reconciliation-service/internal/module/reconciliation/mocks"
	"reconciliation-service/internal/module/reconciliation/models/entity"
	"reconciliation-service/internal/module/reconciliation/models/request"
	"reconciliation-service/internal/module/reconciliation/models/response"
	"reconciliation-service/internal/module/reconciliation/usecases"
	"reconciliation-service/internal/pkg/log"
	log_internal "reconciliation-service/internal/pkg/log"
)

var (
	uc       usecases.Usecase
	repoMock *mocks.Repositories
	logMock  log.Logger
	p        message.Publisher
	cfg      *config.Config
)

type mockPublisher struct{}

// Close implements message.Publisher.
func (m *mockPublisher) Close() error {
	return nil
}

// Publish implements message.Publisher.
func (m *mockPublisher) Publish(topic string, messages ...*message.Message) error {
	return nil
}

func NewMockPublisher() message.Publisher {
	return &mockPublisher{}
}

func setup() {
	repoMock = new(mocks.Repositories)
	p = NewMockPublisher()
	logZap := log_internal.SetupLogger()
	log_internal.Init(logZap)
	logMock = log_internal.GetLogger()
	cfg = &config.Config{
		Gateway: config.GatewayConfig{
			MerchantID:  "MERCHANT1",
			SaltKey:     "salt",
			SaltIndex:   "1",
			Environment: config.EnvSandbox,
		},
		App: config.AppConfig{
			BaseURL:        "https://booking.example.com",
			DefaultEventID: 1,
			DefaultGameID:  7,
		},
	}
	uc = usecases.New(repoMock, logMock, p, cfg)
}

func teardown() {
	repoMock = nil
	uc = nil
}

func successStatus(amount int64) response.GatewayStatus {
	return response.GatewayStatus{
		Success: true,
		Code:    "PAYMENT_SUCCESS",
		Data: response.GatewayTransaction{
			TransactionID:         "TXN1234567890ABCDEF",
			MerchantTransactionID: "MT12345",
			Amount:                amount,
			State:                 "COMPLETED",
			ResponseCode:          "SUCCESS",
		},
	}
}

func TestConfirmPaymentSuccess(t *testing.T) {
	setup()
	defer teardown()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		payloadMock := request.PaymentConfirm{
			MerchantTransactionID: "MT12345",
			UserID:                9,
			Draft: &request.BookingDraft{
				Parent:  request.ParentDraft{Name: "Priya Sharma", Email: "priya@test.com", Phone: "9999999999"},
				Child:   request.ChildDraft{Name: "Aarav", DOB: "2018-06-01", Gender: "M"},
				EventID: 3,
				Games: []request.GameDraft{
					{GameID: 11, Name: "Treasure Hunt", Price: 999, SlotID: 5},
					{GameID: 12, Name: "Sack Race", Price: 800, SlotID: 6},
				},
			},
		}

		repoMock.On("GetTransactionStatus", mock.Anything, "MT12345").Return(successStatus(179900), nil)
		repoMock.On("GetProcessedBooking", mock.Anything, "TXN123456789").Return(int64(0), false, nil)
		repoMock.On("LockReference", mock.Anything, "TXN123456789").Return(func() {}, nil)
		repoMock.On("FindBookingsByReference", mock.Anything, "TXN123456789").Return([]response.BookingLookup{}, nil)
		repoMock.On("CreateBooking", mock.Anything, mock.Anything).Return(int64(42), nil)
		repoMock.On("MarkReferenceProcessed", mock.Anything, "TXN123456789", int64(42)).Return(nil)
		repoMock.On("CreatePaymentRecord", mock.Anything, mock.Anything).Return(int64(1), nil)
		repoMock.On("SendEmail", mock.Anything, mock.Anything).Return(nil)
		repoMock.On("FindTicketDetails", mock.Anything, "TXN123456789").Return([]response.TicketRow{
			{ChildName: "Aarav", EventName: "Summer Carnival", GameName: "Treasure Hunt", VenueName: "City Park", SlotID: 5, SlotStart: "10:00", SlotEnd: "11:00"},
		}, nil)
		repoMock.On("InsertReconciliationLog", mock.Anything, mock.Anything).Return(nil)

		result, err := uc.ConfirmPayment(ctx, &payloadMock)

		assert.NoError(t, err)
		assert.Equal(t, response.StageSuccess, result.Stage)
		assert.True(t, result.BookingCreated)
		assert.True(t, result.PaymentCreated)
		assert.Equal(t, int64(42), result.BookingID)
		assert.Equal(t, "TXN123456789", result.BookingRef)
		assert.Equal(t, float64(1799), result.Amount)
	})
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	setup()
	defer teardown()
	ctx := context.Background()

	t.Run("existing booking short-circuits", func(t *testing.T) {
		payloadMock := request.PaymentConfirm{MerchantTransactionID: "MT12345", UserID: 9}

		repoMock.On("GetTransactionStatus", mock.Anything, "MT12345").Return(successStatus(179900), nil)
		repoMock.On("GetProcessedBooking", mock.Anything, "TXN123456789").Return(int64(0), false, nil)
		repoMock.On("FindBookingsByReference", mock.Anything, "TXN123456789").Return([]response.BookingLookup{
			{BookingID: 42, BookingRef: "TXN123456789", Status: "Confirmed"},
		}, nil)
		repoMock.On("MarkReferenceProcessed", mock.Anything, "TXN123456789", int64(42)).Return(nil)
		repoMock.On("InsertReconciliationLog", mock.Anything, mock.Anything).Return(nil)

		result, err := uc.ConfirmPayment(ctx, &payloadMock)

		assert.NoError(t, err)
		assert.Equal(t, response.StageAlreadyProcessed, result.Stage)
		assert.Equal(t, int64(42), result.BookingID)
		repoMock.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
		repoMock.AssertNotCalled(t, "CreatePaymentRecord", mock.Anything, mock.Anything)
	})

	t.Run("cache hit skips lookup entirely", func(t *testing.T) {
		setup()
		payloadMock := request.PaymentConfirm{MerchantTransactionID: "MT12345", UserID: 9}

		repoMock.On("GetTransactionStatus", mock.Anything, "MT12345").Return(successStatus(179900), nil)
		repoMock.On("GetProcessedBooking", mock.Anything, "TXN123456789").Return(int64(42), true, nil)

		result, err := uc.ConfirmPayment(ctx, &payloadMock)

		assert.NoError(t, err)
		assert.Equal(t, response.StageAlreadyProcessed, result.Stage)
		repoMock.AssertNotCalled(t, "FindBookingsByReference", mock.Anything, mock.Anything)
		repoMock.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	})
}

func TestConfirmPaymentNotSuccessful(t *testing.T) {
	setup()
	defer teardown()
	ctx := context.Background()

	t.Run("failed payment is terminal, no writes", func(t *testing.T) {
		payloadMock := request.PaymentConfirm{MerchantTransactionID: "MT12345"}

		status := successStatus(179900)
		status.Success = false
		status.Code = "PAYMENT_ERROR"
		status.Data.State = "FAILED"

		repoMock.On("GetTransactionStatus", mock.Anything, "MT12345").Return(status, nil)
		repoMock.On("InsertReconciliationLog", mock.Anything, mock.Anything).Return(nil)

		result, err := uc.ConfirmPayment(ctx, &payloadMock)

		assert.NoError(t, err)
		assert.Equal(t, response.StageNotSuccessful, result.Stage)
		assert.False(t, result.BookingCreated)
		repoMock.AssertNotCalled(t, "FindBookingsByReference", mock.Anything, mock.Anything)
		repoMock.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	})
}

func TestConfirmPaymentLookupFailureProceeds(t *testing.T) {
	setup()
	defer teardown()
	ctx := context.Background()

	t.Run("idempotency lookup failure does not stop the workflow", func(t *testing.T) {
		payloadMock := request.PaymentConfirm{MerchantTransactionID: "MT12345", UserID: 9}

		repoMock.On("GetTransactionStatus", mock.Anything, "MT12345").Return(successStatus(179900), nil)
		repoMock.On("GetProcessedBooking", mock.Anything, "TXN123456789").Return(int64(0), false, nil)
		repoMock.On("FindBookingsByReference", mock.Anything, "TXN123456789").Return(nil, assert.AnError)
		repoMock.On("LockReference", mock.Anything, "TXN123456789").Return(func() {}, nil)
		repoMock.On("CreateBooking", mock.Anything, mock.Anything).Return(int64(42), nil)
		repoMock.On("MarkReferenceProcessed", mock.Anything, "TXN123456789", int64(42)).Return(nil)
		repoMock.On("CreatePaymentRecord", mock.Anything, mock.Anything).Return(int64(1), nil)
		repoMock.On("SendEmail", mock.Anything, mock.Anything).Return(nil)
		repoMock.On("FindTicketDetails", mock.Anything, "TXN123456789").Return([]response.TicketRow{}, nil)
		repoMock.On("InsertReconciliationLog", mock.Anything, mock.Anything).Return(nil)

		result, err := uc.ConfirmPayment(ctx, &payloadMock)

		assert.NoError(t, err)
		assert.Equal(t, response.StageSuccess, result.Stage)
		repoMock.AssertCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	})
}

func TestConfirmPaymentBookingFailed(t *testing.T) {
	setup()
	defer teardown()
	ctx := context.Background()

	t.Run("booking creation failure reports without payment attempt", func(t *testing.T) {
		payloadMock := request.PaymentConfirm{MerchantTransactionID: "MT12345", UserID: 9}

		repoMock.On("GetTransactionStatus", mock.Anything, "MT12345").Return(successStatus(179900), nil)
		repoMock.On("GetProcessedBooking", mock.Anything, "TXN123456789").Return(int64(0), false, nil)
		repoMock.On("FindBookingsByReference", mock.Anything, "TXN123456789").Return([]response.BookingLookup{}, nil)
		repoMock.On("LockReference", mock.Anything, "TXN123456789").Return(func() {}, nil)
		repoMock.On("CreateBooking", mock.Anything, mock.Anything).Return(int64(0), assert.AnError)
		repoMock.On("InsertReconciliationLog", mock.Anything, mock.Anything).Return(nil)

		result, err := uc.ConfirmPayment(ctx, &payloadMock)

		assert.NoError(t, err)
		assert.Equal(t, response.StageBookingFailed, result.Stage)
		assert.True(t, result.PaymentSuccessful)
		assert.False(t, result.BookingCreated)
		assert.NotEmpty(t, result.Error)
		repoMock.AssertNotCalled(t, "CreatePaymentRecord", mock.Anything, mock.Anything)
	})
}

func TestConfirmPaymentPartialFailure(t *testing.T) {
	setup()
	defer teardown()
	ctx := context.Background()

	t.Run("payment record failure reports partial failure, no rollback", func(t *testing.T) {
		payloadMock := request.PaymentConfirm{MerchantTransactionID: "MT12345", UserID: 9}

		repoMock.On("GetTransactionStatus", mock.Anything, "MT12345").Return(successStatus(179900), nil)
		repoMock.On("GetProcessedBooking", mock.Anything, "TXN123456789").Return(int64(0), false, nil)
		repoMock.On("FindBookingsByReference", mock.Anything, "TXN123456789").Return([]response.BookingLookup{}, nil)
		repoMock.On("LockReference", mock.Anything, "TXN123456789").Return(func() {}, nil)
		repoMock.On("CreateBooking", mock.Anything, mock.Anything).Return(int64(42), nil)
		repoMock.On("MarkReferenceProcessed", mock.Anything, "TXN123456789", int64(42)).Return(nil)
		repoMock.On("CreatePaymentRecord", mock.Anything, mock.Anything).Return(int64(0), assert.AnError)
		repoMock.On("ScheduleRetryPaymentRecord", mock.Anything, mock.Anything, mock.Anything).Return("task-1", nil)
		repoMock.On("InsertReconciliationLog", mock.Anything, mock.Anything).Return(nil)

		result, err := uc.ConfirmPayment(ctx, &payloadMock)

		assert.NoError(t, err)
		assert.Equal(t, response.StagePartialFailure, result.Stage)
		assert.True(t, result.BookingCreated)
		assert.False(t, result.PaymentCreated)
		assert.Equal(t, int64(42), result.BookingID)
		repoMock.AssertCalled(t, "ScheduleRetryPaymentRecord", mock.Anything, mock.Anything, mock.Anything)
		repoMock.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
	})
}

func TestNotificationIsolation(t *testing.T) {
	setup()
	defer teardown()
	ctx := context.Background()

	t.Run("confirmation email failure leaves result intact and skips ticket email", func(t *testing.T) {
		payloadMock := request.PaymentConfirm{
			MerchantTransactionID: "MT12345",
			UserID:                9,
			Draft: &request.BookingDraft{
				Parent: request.ParentDraft{Name: "Priya", Email: "priya@test.com"},
			},
		}

		repoMock.On("GetTransactionStatus", mock.Anything, "MT12345").Return(successStatus(179900), nil)
		repoMock.On("GetProcessedBooking", mock.Anything, "TXN123456789").Return(int64(0), false, nil)
		repoMock.On("FindBookingsByReference", mock.Anything, "TXN123456789").Return([]response.BookingLookup{}, nil)
		repoMock.On("LockReference", mock.Anything, "TXN123456789").Return(func() {}, nil)
		repoMock.On("CreateBooking", mock.Anything, mock.Anything).Return(int64(42), nil)
		repoMock.On("MarkReferenceProcessed", mock.Anything, "TXN123456789", int64(42)).Return(nil)
		repoMock.On("CreatePaymentRecord", mock.Anything, mock.Anything).Return(int64(1), nil)
		repoMock.On("SendEmail", mock.Anything, mock.Anything).Return(assert.AnError)
		repoMock.On("InsertReconciliationLog", mock.Anything, mock.Anything).Return(nil)

		result, err := uc.ConfirmPayment(ctx, &payloadMock)

		assert.NoError(t, err)
		assert.Equal(t, response.StageSuccess, result.Stage)
		assert.True(t, result.BookingCreated)
		assert.True(t, result.PaymentCreated)
		repoMock.AssertNotCalled(t, "FindTicketDetails", mock.Anything, mock.Anything)
	})
}

func TestConfirmPaymentGatewayError(t *testing.T) {
	setup()
	defer teardown()
	ctx := context.Background()

	t.Run("gateway failure surfaces as error", func(t *testing.T) {
		payloadMock := request.PaymentConfirm{MerchantTransactionID: "MT12345"}

		repoMock.On("GetTransactionStatus", mock.Anything, "MT12345").Return(response.GatewayStatus{}, assert.AnError)

		_, err := uc.ConfirmPayment(ctx, &payloadMock)

		assert.Error(t, err)
		repoMock.AssertNotCalled(t, "FindBookingsByReference", mock.Anything, mock.Anything)
	})
}

func TestRetryPaymentRecord(t *testing.T) {
	setup()
	defer teardown()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		payloadMock := request.RetryPaymentRecord{
			BookingID:             42,
			BookingRef:            "TXN123456789",
			TransactionID:         "TXN1234567890ABCDEF",
			MerchantTransactionID: "MT12345",
			Amount:                179900,
			State:                 "COMPLETED",
		}

		repoMock.On("CreatePaymentRecord", mock.Anything, mock.Anything).Return(int64(1), nil)
		repoMock.On("InsertReconciliationLog", mock.Anything, mock.Anything).Return(nil)

		err := uc.RetryPaymentRecord(ctx, &payloadMock)

		assert.NoError(t, err)
	})

	t.Run("failure propagates for asynq retry", func(t *testing.T) {
		setup()
		payloadMock := request.RetryPaymentRecord{
			BookingID:             42,
			BookingRef:            "TXN123456789",
			TransactionID:         "TXN1234567890ABCDEF",
			MerchantTransactionID: "MT12345",
			Amount:                179900,
		}

		repoMock.On("CreatePaymentRecord", mock.Anything, mock.Anything).Return(int64(0), assert.AnError)

		err := uc.RetryPaymentRecord(ctx, &payloadMock)

		assert.Error(t, err)
	})
}

func TestIsTransactionSuccessful(t *testing.T) {
	completed := response.GatewayStatus{Success: true, Code: "PAYMENT_SUCCESS", Data: response.GatewayTransaction{State: "COMPLETED"}}
	pending := response.GatewayStatus{Success: true, Code: "PAYMENT_PENDING", Data: response.GatewayTransaction{State: "PENDING"}}
	failed := response.GatewayStatus{Success: false, Code: "PAYMENT_ERROR", Data: response.GatewayTransaction{State: "FAILED"}}
	successFlagOnly := response.GatewayStatus{Success: true, Code: "INTERNAL", Data: response.GatewayTransaction{State: "PENDING"}}

	assert.True(t, usecases.IsTransactionSuccessful(completed, false))
	assert.True(t, usecases.IsTransactionSuccessful(completed, true))
	assert.False(t, usecases.IsTransactionSuccessful(failed, false))
	assert.False(t, usecases.IsTransactionSuccessful(failed, true))
	// the sandbox simulator reports pending for completed test payments
	assert.True(t, usecases.IsTransactionSuccessful(pending, true))
	assert.False(t, usecases.IsTransactionSuccessful(pending, false))
	assert.False(t, usecases.IsTransactionSuccessful(successFlagOnly, false))
}

func TestBookingReference(t *testing.T) {
	t.Run("long id truncates to 12", func(t *testing.T) {
		ref := usecases.BookingReference("TXN1234567890ABCDEF")
		assert.Equal(t, "TXN123456789", ref)
	})

	t.Run("strips non-alphanumerics and uppercases", func(t *testing.T) {
		ref := usecases.BookingReference("txn-1234_5678.90abc")
		assert.Equal(t, "TXN123456789", ref)
	})

	t.Run("stable across calls", func(t *testing.T) {
		a := usecases.BookingReference("TXN1234567890ABCDEF")
		b := usecases.BookingReference("TXN1234567890ABCDEF")
		assert.Equal(t, a, b)
	})

	t.Run("short id pads deterministically", func(t *testing.T) {
		a := usecases.BookingReference("ab1")
		b := usecases.BookingReference("ab1")
		assert.Equal(t, a, b)
		assert.Len(t, a, 12)
		assert.Regexp(t, "^[A-Z0-9]{12}$", a)
		assert.Equal(t, "AB1", a[:3])
	})

	t.Run("empty id still yields a full reference", func(t *testing.T) {
		ref := usecases.BookingReference("")
		assert.Len(t, ref, 12)
		assert.Equal(t, ref, usecases.BookingReference(""))
	})
}

func TestNormalizeGender(t *testing.T) {
	cases := map[string]entity.Gender{
		"male":          entity.GenderMale,
		"M":             entity.GenderMale,
		"  Male  ":      entity.GenderMale,
		"female":        entity.GenderFemale,
		"f":             entity.GenderFemale,
		"non-binary":    entity.GenderNonBinary,
		"nonbinary":     entity.GenderNonBinary,
		"Non Binary":    entity.GenderNonBinary,
		"anything-else": entity.GenderOther,
		"":              entity.GenderOther,
	}

	valid := map[entity.Gender]bool{
		entity.GenderMale:      true,
		entity.GenderFemale:    true,
		entity.GenderNonBinary: true,
		entity.GenderOther:     true,
	}

	for input, expected := range cases {
		got := usecases.NormalizeGender(input)
		assert.Equal(t, expected, got, "input %q", input)
		assert.True(t, valid[got], "input %q mapped outside the enumeration", input)
	}
}

func TestAssembleBookingPayload(t *testing.T) {
	appCfg := &config.AppConfig{DefaultEventID: 1, DefaultGameID: 7}
	status := successStatus(179900)

	t.Run("no draft yields synthetic payload with fallback game", func(t *testing.T) {
		payload := usecases.AssembleBookingPayload(status, nil, "TXN123456789", 55, appCfg)

		assert.Equal(t, "Parent 55", payload.Parent.Name)
		assert.Equal(t, "Child 55", payload.Child.Name)
		assert.Equal(t, entity.GenderOther, payload.Child.Gender)
		assert.Equal(t, int64(1), payload.Booking.EventID)
		assert.Equal(t, entity.BookingStatusConfirmed, payload.Booking.Status)
		assert.GreaterOrEqual(t, len(payload.BookingGames), 1)
		assert.Equal(t, int64(7), payload.BookingGames[0].GameID)
		assert.Equal(t, float64(1799), payload.BookingGames[0].GamePrice)
	})

	t.Run("draft without games gets fallback game at full amount", func(t *testing.T) {
		draft := &request.BookingDraft{
			Parent: request.ParentDraft{Name: "Priya", Email: "p@test.com"},
			Child:  request.ChildDraft{Name: "Aarav", Gender: "male"},
		}
		payload := usecases.AssembleBookingPayload(status, draft, "TXN123456789", 55, appCfg)

		assert.Len(t, payload.BookingGames, 1)
		var sum float64
		for _, g := range payload.BookingGames {
			sum += g.GamePrice
		}
		assert.Equal(t, float64(1799), sum)
	})

	t.Run("valid games pass through", func(t *testing.T) {
		draft := &request.BookingDraft{
			Games: []request.GameDraft{
				{GameID: 11, Price: 999, SlotID: 5},
				{GameID: 12, Price: 800, SlotID: 6},
			},
		}
		payload := usecases.AssembleBookingPayload(status, draft, "TXN123456789", 55, appCfg)

		assert.Len(t, payload.BookingGames, 2)
		assert.Equal(t, int64(11), payload.BookingGames[0].GameID)
		assert.Equal(t, int64(5), payload.BookingGames[0].SlotID)
	})

	t.Run("structurally broken games are dropped, fallback takes over", func(t *testing.T) {
		draft := &request.BookingDraft{
			Games: []request.GameDraft{
				{GameID: 0, Price: 999},
				{GameID: 11, Price: 0},
			},
		}
		payload := usecases.AssembleBookingPayload(status, draft, "TXN123456789", 55, appCfg)

		assert.Len(t, payload.BookingGames, 1)
		assert.Equal(t, int64(7), payload.BookingGames[0].GameID)
		assert.Equal(t, float64(1799), payload.BookingGames[0].GamePrice)
	})

	t.Run("price sum inconsistent with gateway amount drops the draft games", func(t *testing.T) {
		draft := &request.BookingDraft{
			Games: []request.GameDraft{
				{GameID: 11, Price: 500},
			},
		}
		payload := usecases.AssembleBookingPayload(status, draft, "TXN123456789", 55, appCfg)

		assert.Len(t, payload.BookingGames, 1)
		assert.Equal(t, int64(7), payload.BookingGames[0].GameID)
	})

	t.Run("addons map with sane minimums", func(t *testing.T) {
		draft := &request.BookingDraft{
			Addons: []request.AddonDraft{
				{AddonID: 3, Quantity: 0, VariantID: -1, Price: 100},
				{AddonID: 0},
			},
		}
		payload := usecases.AssembleBookingPayload(status, draft, "TXN123456789", 55, appCfg)

		assert.Len(t, payload.BookingAddons, 1)
		assert.Equal(t, 1, payload.BookingAddons[0].Quantity)
		assert.Equal(t, int64(0), payload.BookingAddons[0].VariantID)
	})

	t.Run("gender in payload always in enumeration", func(t *testing.T) {
		draft := &request.BookingDraft{Child: request.ChildDraft{Gender: "Non Binary"}}
		payload := usecases.AssembleBookingPayload(status, draft, "TXN123456789", 55, appCfg)
		assert.Equal(t, entity.GenderNonBinary, payload.Child.Gender)
	})
}
