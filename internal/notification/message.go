// Package notification delivers best-effort chat messages about bookings.
// Nothing here ever fails the operation that triggered a message.
package notification

import (
	"context"
	"fmt"
	"strings"
)

const (
	TypeBookingCreated   = "booking.created"
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"
	TypePaymentConfirmed = "payment.confirmed"
	TypeReceiptReceived  = "payment.receipt"
)

// Inline button actions understood by the bot.
const (
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
	ActionPayment = "payment"
)

type Button struct {
	Text string
	Data string
	URL  string
}

type Message struct {
	Type        string
	ChatID      int64
	Text        string
	Buttons     [][]Button
	PhotoFileID string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// CallbackData encodes an inline button payload.
func CallbackData(action, bookingID string) string {
	return fmt.Sprintf("%s:%s", action, bookingID)
}

// ParseCallbackData splits a payload produced by CallbackData. The legacy
// underscore separator is accepted too.
func ParseCallbackData(data string) (action, bookingID string, ok bool) {
	for _, sep := range []string{":", "_"} {
		if a, id, found := strings.Cut(data, sep); found && a != "" && id != "" {
			switch a {
			case ActionConfirm, ActionCancel, ActionPayment:
				return a, id, true
			}
		}
	}
	return "", "", false
}
