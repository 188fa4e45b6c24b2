package usecases

import (
	"crypto/sha256"
	"fmt"
	"math"
	"strings"
	"time"

	"reconciliation-service/config"
	"reconciliation-service/internal/module/reconciliation/models/entity"
	"reconciliation-service/internal/module/reconciliation/models/request"
	"reconciliation-service/internal/module/reconciliation/models/response"
	"reconciliation-service/internal/pkg/helpers"
)

const (
	bookingRefLength = 12
	// tolerance for comparing a draft's game-price sum against the gateway
	// amount, one minor unit expressed in major units
	amountTolerance = 0.01
)

const refPadCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// BookingReference derives the stable 12-character reference for a gateway
// transaction id. Same id, same reference, always: short ids are padded from
// a hash of the cleaned id rather than randomness, because the idempotency
// guard depends on the reference being reproducible across retries.
func BookingReference(transactionID string) string {
	var cleaned strings.Builder
	for _, r := range strings.ToUpper(transactionID) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			cleaned.WriteRune(r)
		}
	}

	ref := cleaned.String()
	if len(ref) >= bookingRefLength {
		return ref[:bookingRefLength]
	}

	sum := sha256.Sum256([]byte(ref))
	for i := 0; len(ref) < bookingRefLength; i++ {
		ref += string(refPadCharset[int(sum[i%len(sum)])%len(refPadCharset)])
	}
	return ref
}

// NormalizeGender maps free-text gender input onto the fixed enumeration.
// Total: every input maps to a value, unknowns become Other.
func NormalizeGender(raw string) entity.Gender {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "male", "m":
		return entity.GenderMale
	case "female", "f":
		return entity.GenderFemale
	case "non-binary", "nonbinary", "non binary":
		return entity.GenderNonBinary
	default:
		return entity.GenderOther
	}
}

// AssembleBookingPayload builds the API-ready booking request from whatever
// draft data survived on the client, filling gaps with safe defaults. It
// never fails: a successful payment always yields a creatable booking, even
// from no draft at all.
func AssembleBookingPayload(status response.GatewayStatus, draft *request.BookingDraft, bookingRef string, userID int64, defaults *config.AppConfig) *entity.BookingPayload {
	amount := helpers.MajorUnits(status.Data.Amount)

	payload := &entity.BookingPayload{
		UserID: userID,
		Parent: entity.Parent{
			Name: fmt.Sprintf("Parent %d", userID),
		},
		Child: entity.Child{
			Name:   fmt.Sprintf("Child %d", userID),
			Gender: entity.GenderOther,
		},
		Booking: entity.BookingInfo{
			EventID:               defaults.DefaultEventID,
			BookingDate:           time.Now().UTC().Format("2006-01-02"),
			TotalAmount:           amount,
			PaymentMethod:         entity.PaymentMethodGateway,
			PaymentStatus:         entity.PaymentStatusPaid,
			TermsAccepted:         true,
			TransactionID:         status.Data.TransactionID,
			MerchantTransactionID: status.Data.MerchantTransactionID,
			BookingRef:            bookingRef,
			Status:                entity.BookingStatusConfirmed,
		},
	}

	if draft != nil {
		if draft.Parent.Name != "" {
			payload.Parent.Name = draft.Parent.Name
		}
		payload.Parent.Email = draft.Parent.Email
		payload.Parent.Phone = draft.Parent.Phone

		if draft.Child.Name != "" {
			payload.Child.Name = draft.Child.Name
		}
		payload.Child.DOB = draft.Child.DOB
		payload.Child.School = draft.Child.School
		payload.Child.Gender = NormalizeGender(draft.Child.Gender)

		if draft.EventID > 0 {
			payload.Booking.EventID = draft.EventID
		}

		payload.BookingGames = validateGames(draft.Games, amount)
		payload.BookingAddons = mapAddons(draft.Addons)
	}

	// The booking API requires at least one game line.
	if len(payload.BookingGames) == 0 {
		payload.BookingGames = []entity.BookingGame{{
			GameID:     defaults.DefaultGameID,
			ChildIndex: 0,
			GamePrice:  amount,
		}}
	}

	return payload
}

// validateGames keeps structurally complete draft entries whose price sum
// matches the gateway-reported amount; anything else is dropped so the
// fallback game takes over.
func validateGames(games []request.GameDraft, amount float64) []entity.BookingGame {
	var valid []entity.BookingGame
	var sum float64
	for _, g := range games {
		if g.GameID <= 0 || g.Price <= 0 {
			continue
		}
		valid = append(valid, entity.BookingGame{
			GameID:     g.GameID,
			ChildIndex: 0,
			GamePrice:  g.Price,
			SlotID:     g.SlotID,
		})
		sum += g.Price
	}

	if len(valid) == 0 {
		return nil
	}
	if math.Abs(sum-amount) > amountTolerance {
		return nil
	}
	return valid
}

func mapAddons(addons []request.AddonDraft) []entity.BookingAddon {
	var mapped []entity.BookingAddon
	for _, a := range addons {
		if a.AddonID <= 0 {
			continue
		}
		quantity := a.Quantity
		if quantity < 1 {
			quantity = 1
		}
		variantID := a.VariantID
		if variantID < 0 {
			variantID = 0
		}
		mapped = append(mapped, entity.BookingAddon{
			AddonID:   a.AddonID,
			Quantity:  quantity,
			VariantID: variantID,
			Price:     a.Price,
		})
	}
	return mapped
}
