package request

// PaymentConfirm is the payload delivered by the payment-return page after
// the gateway redirects the customer back. Draft is whatever survived in the
// client's local storage; it may be absent entirely.
type PaymentConfirm struct {
	MerchantTransactionID string        `json:"merchant_transaction_id" validate:"required"`
	UserID                int64         `json:"user_id"`
	Draft                 *BookingDraft `json:"draft"`
}

// BookingDraft is untrusted, best-effort client data. Every field may be
// missing or malformed; the payload assembler repairs or replaces it.
type BookingDraft struct {
	Parent      ParentDraft  `json:"parent"`
	Child       ChildDraft   `json:"child"`
	EventID     int64        `json:"event_id"`
	Games       []GameDraft  `json:"games"`
	Addons      []AddonDraft `json:"addons"`
	TotalAmount float64      `json:"total_amount"`
}

type ParentDraft struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ChildDraft struct {
	Name   string `json:"name"`
	DOB    string `json:"dob"`
	School string `json:"school"`
	Gender string `json:"gender"`
}

type GameDraft struct {
	GameID int64   `json:"game_id"`
	Name   string  `json:"game_name"`
	Price  float64 `json:"game_price"`
	SlotID int64   `json:"slot_id"`
}

type AddonDraft struct {
	AddonID   int64   `json:"addon_id"`
	Quantity  int     `json:"quantity"`
	VariantID int64   `json:"variant_id"`
	Price     float64 `json:"price"`
}

// RetryPaymentRecord is the asynq task payload scheduled after a partial
// failure (booking created, payment record not).
type RetryPaymentRecord struct {
	BookingID             int64  `json:"booking_id" validate:"required"`
	BookingRef            string `json:"booking_ref" validate:"required"`
	TransactionID         string `json:"transaction_id" validate:"required"`
	MerchantTransactionID string `json:"merchant_transaction_id" validate:"required"`
	Amount                int64  `json:"amount" validate:"required"`
	State                 string `json:"state"`
	ResponseCode          string `json:"response_code"`
}

// Email is the request shape of the mail transport collaborator.
type Email struct {
	To       string            `json:"to" validate:"required"`
	Subject  string            `json:"subject" validate:"required"`
	Html     string            `json:"html" validate:"required"`
	Settings map[string]string `json:"settings,omitempty"`
}

type PoisonedQueue struct {
	TopicTarget string      `json:"topic_target" validate:"required"`
	ErrorMsg    string      `json:"error_msg" validate:"required"`
	Payload     interface{} `json:"payload" validate:"required"`
}
