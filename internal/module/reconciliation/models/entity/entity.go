package entity

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale      Gender = "Male"
	GenderFemale    Gender = "Female"
	GenderNonBinary Gender = "Non-Binary"
	GenderOther     Gender = "Other"
)

const (
	BookingStatusConfirmed = "Confirmed"
	PaymentStatusPaid      = "Paid"
	PaymentMethodGateway   = "phonepe"
)

// BookingPayload is the validated, API-ready booking-creation request. It is
// structurally complete by construction: at least one game line, gender in
// the fixed enumeration, a stable booking reference and Confirmed status.
type BookingPayload struct {
	UserID        int64          `json:"user_id"`
	Parent        Parent         `json:"parent"`
	Child         Child          `json:"child"`
	Booking       BookingInfo    `json:"booking"`
	BookingGames  []BookingGame  `json:"booking_games"`
	BookingAddons []BookingAddon `json:"booking_addons,omitempty"`
}

type Parent struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Child struct {
	Name   string `json:"name"`
	DOB    string `json:"dob"`
	School string `json:"school"`
	Gender Gender `json:"gender"`
}

type BookingInfo struct {
	EventID               int64   `json:"event_id"`
	BookingDate           string  `json:"booking_date"`
	TotalAmount           float64 `json:"total_amount"`
	PaymentMethod         string  `json:"payment_method"`
	PaymentStatus         string  `json:"payment_status"`
	TermsAccepted         bool    `json:"terms_accepted"`
	TransactionID         string  `json:"transaction_id"`
	MerchantTransactionID string  `json:"merchant_transaction_id"`
	BookingRef            string  `json:"booking_ref"`
	Status                string  `json:"status"`
}

type BookingGame struct {
	GameID     int64   `json:"game_id"`
	ChildIndex int     `json:"child_index"`
	GamePrice  float64 `json:"game_price"`
	SlotID     int64   `json:"slot_id,omitempty"`
}

type BookingAddon struct {
	AddonID   int64   `json:"addon_id"`
	Quantity  int     `json:"quantity"`
	VariantID int64   `json:"variant_id"`
	Price     float64 `json:"price"`
}

// PaymentRecord links a created booking to the captured gateway transaction.
// Created at most once per booking reference, best effort.
type PaymentRecord struct {
	BookingID            int64           `json:"booking_id"`
	TransactionID        string          `json:"transaction_id"`
	PhonepeTransactionID string          `json:"phonepe_transaction_id"`
	Amount               float64         `json:"amount"`
	PaymentMethod        string          `json:"payment_method"`
	PaymentStatus        string          `json:"payment_status"`
	PaymentDate          string          `json:"payment_date"`
	GatewayResponse      GatewayResponse `json:"gateway_response"`
}

type GatewayResponse struct {
	Code         string `json:"code"`
	State        string `json:"state"`
	ResponseCode string `json:"response_code"`
	Amount       int64  `json:"amount"`
}

// ReconciliationLog is the local audit row written once per invocation; the
// manual-reconciliation path works off this table.
type ReconciliationLog struct {
	ID                    uuid.UUID      `db:"id"`
	BookingRef            string         `db:"booking_ref"`
	MerchantTransactionID string         `db:"merchant_transaction_id"`
	TransactionID         string         `db:"transaction_id"`
	Amount                int64          `db:"amount"`
	Stage                 string         `db:"stage"`
	BookingID             sql.NullInt64  `db:"booking_id"`
	BookingCreated        bool           `db:"booking_created"`
	PaymentCreated        bool           `db:"payment_created"`
	ErrorMessage          sql.NullString `db:"error_message"`
	CreatedAt             time.Time      `db:"created_at"`
}
