package usecases

import (
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"reconciliation-service/internal/module/reconciliation/models/entity"
	"reconciliation-service/internal/module/reconciliation/models/request"
	"reconciliation-service/internal/module/reconciliation/models/response"
)

// dispatchNotifications sends the confirmation email and, only if its
// transport call succeeded, the ticket email with the QR payload. Each step
// swallows and logs its own failure; neither touches the workflow result.
func (u *usecase) dispatchNotifications(ctx context.Context, draft *request.BookingDraft, payload *entity.BookingPayload, bookingID int64, bookingRef string, amount float64) {
	recipient := payload.Parent.Email
	if recipient == "" {
		u.log.Warn(ctx, "no recipient email in draft, skipping notifications", bookingRef)
		return
	}

	html, err := renderConfirmationEmail(confirmationEmailData{
		ParentName: payload.Parent.Name,
		ChildName:  payload.Child.Name,
		BookingRef: bookingRef,
		Amount:     amount,
		Games:      confirmationGames(draft, payload),
		BaseURL:    u.cfg.App.BaseURL,
	})
	if err != nil {
		u.log.Error(ctx, "error render confirmation email", err)
		return
	}

	err = u.repo.SendEmail(ctx, &request.Email{
		To:      recipient,
		Subject: fmt.Sprintf("Booking confirmed — %s", bookingRef),
		Html:    html,
	})
	if err != nil {
		u.log.Error(ctx, "error send confirmation email", err)
		// ticket email depends on the confirmation transport succeeding
		return
	}

	u.sendTicketEmail(ctx, recipient, payload, bookingID, bookingRef)
}

func (u *usecase) sendTicketEmail(ctx context.Context, recipient string, payload *entity.BookingPayload, bookingID int64, bookingRef string) {
	tickets, err := u.repo.FindTicketDetails(ctx, bookingRef)
	if err != nil {
		u.log.Error(ctx, "error fetch ticket details", err)
		return
	}
	if len(tickets) == 0 {
		u.log.Warn(ctx, "no ticket rows for booking reference", bookingRef)
		return
	}

	first := tickets[0]
	qrPayload, err := json.Marshal(map[string]interface{}{
		"reference":  bookingRef,
		"booking_id": bookingID,
		"child_name": first.ChildName,
		"game_name":  first.GameName,
		"slot_id":    first.SlotID,
	})
	if err != nil {
		u.log.Error(ctx, "error build qr payload", err)
		return
	}

	html, err := renderTicketEmail(ticketEmailData{
		ChildName:  first.ChildName,
		BookingRef: bookingRef,
		Tickets:    tickets,
		QRCodeURL:  fmt.Sprintf("%s/qr?payload=%s", strings.TrimRight(u.cfg.App.BaseURL, "/"), url.QueryEscape(string(qrPayload))),
	})
	if err != nil {
		u.log.Error(ctx, "error render ticket email", err)
		return
	}

	err = u.repo.SendEmail(ctx, &request.Email{
		To:      recipient,
		Subject: fmt.Sprintf("Your tickets — %s", bookingRef),
		Html:    html,
	})
	if err != nil {
		u.log.Error(ctx, "error send ticket email", err)
	}
}

// confirmationGames lists game lines for the email from the richest source
// available: draft names when the draft survived, generic labels otherwise.
func confirmationGames(draft *request.BookingDraft, payload *entity.BookingPayload) []confirmationGame {
	names := map[int64]string{}
	if draft != nil {
		for _, g := range draft.Games {
			if g.Name != "" {
				names[g.GameID] = g.Name
			}
		}
	}

	games := make([]confirmationGame, 0, len(payload.BookingGames))
	for _, g := range payload.BookingGames {
		label := names[g.GameID]
		if label == "" {
			label = fmt.Sprintf("Activity #%d", g.GameID)
		}
		games = append(games, confirmationGame{
			Label: label,
			Price: g.GamePrice,
		})
	}
	return games
}

type confirmationGame struct {
	Label string
	Price float64
}

type confirmationEmailData struct {
	ParentName string
	ChildName  string
	BookingRef string
	Amount     float64
	Games      []confirmationGame
	BaseURL    string
}

type ticketEmailData struct {
	ChildName  string
	BookingRef string
	Tickets    []response.TicketRow
	QRCodeURL  string
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Booking confirmed</h2>
  <p>Hi {{.ParentName}},</p>
  <p>Your booking for {{.ChildName}} is confirmed. Your booking reference is
  <strong>{{.BookingRef}}</strong> — keep it handy for event day.</p>
  <table cellpadding="6" cellspacing="0" border="0">
    {{range .Games}}
    <tr><td>{{.Label}}</td><td style="text-align:right;">&#8377;{{printf "%.2f" .Price}}</td></tr>
    {{end}}
    <tr><td><strong>Total paid</strong></td><td style="text-align:right;"><strong>&#8377;{{printf "%.2f" .Amount}}</strong></td></tr>
  </table>
  <p><a href="{{.BaseURL}}/bookings/{{.BookingRef}}">View your booking</a></p>
  <p>Your tickets will follow in a separate email shortly.</p>
</body>
</html>`))

var ticketTmpl = template.Must(template.New("ticket").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Your tickets</h2>
  <p>Tickets for {{.ChildName}}, booking <strong>{{.BookingRef}}</strong>.</p>
  <table cellpadding="6" cellspacing="0" border="1">
    <tr><th>Activity</th><th>Event</th><th>Venue</th><th>Slot</th></tr>
    {{range .Tickets}}
    <tr><td>{{.GameName}}</td><td>{{.EventName}}</td><td>{{.VenueName}}</td><td>{{.SlotStart}} – {{.SlotEnd}}</td></tr>
    {{end}}
  </table>
  <p>Show this QR code at the entrance:</p>
  <p><img src="{{.QRCodeURL}}" alt="entry QR code" width="200" height="200"/></p>
</body>
</html>`))

func renderConfirmationEmail(data confirmationEmailData) (string, error) {
	var sb strings.Builder
	if err := confirmationTmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func renderTicketEmail(data ticketEmailData) (string, error) {
	var sb strings.Builder
	if err := ticketTmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
