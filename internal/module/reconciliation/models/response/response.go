package response

// GatewayStatus is the raw status-query response, decoded once and treated as
// immutable for the rest of the workflow.
type GatewayStatus struct {
	Success bool               `json:"success"`
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Data    GatewayTransaction `json:"data"`
}

type GatewayTransaction struct {
	TransactionID         string `json:"transactionId"`
	MerchantTransactionID string `json:"merchantTransactionId"`
	Amount                int64  `json:"amount"`
	State                 string `json:"state"`
	ResponseCode          string `json:"responseCode"`
}

// BookingLookup is one row from the booking-lookup-by-reference endpoint.
type BookingLookup struct {
	BookingID  int64  `json:"booking_id"`
	BookingRef string `json:"booking_ref"`
	Status     string `json:"status"`
}

// TicketRow is one row of the ticket-detail lookup used for the ticket email.
type TicketRow struct {
	ChildName string `json:"child_name"`
	EventName string `json:"event_name"`
	GameName  string `json:"game_name"`
	VenueName string `json:"venue_name"`
	SlotID    int64  `json:"slot_id"`
	SlotStart string `json:"slot_start"`
	SlotEnd   string `json:"slot_end"`
}

type MailResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Terminal stages of one workflow invocation.
const (
	StageNotSuccessful    = "not_successful"
	StageAlreadyProcessed = "already_processed"
	StageBookingFailed    = "booking_failed"
	StagePartialFailure   = "partial_failure"
	StageSuccess          = "success"
)

// ReconciliationResult is the structured body returned to the confirmation
// page. BookingCreated never implies PaymentCreated; callers must read both.
type ReconciliationResult struct {
	Stage             string  `json:"stage"`
	PaymentSuccessful bool    `json:"payment_successful"`
	BookingCreated    bool    `json:"booking_created"`
	PaymentCreated    bool    `json:"payment_created"`
	BookingID         int64   `json:"booking_id,omitempty"`
	BookingRef        string  `json:"booking_ref,omitempty"`
	Amount            float64 `json:"amount,omitempty"`
	Error             string  `json:"error,omitempty"`
}
