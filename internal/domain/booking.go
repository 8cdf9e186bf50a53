package domain

import (
	"time"

	"cottage/internal/pkg/daterange"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// ActiveStatuses are the statuses that occupy the calendar.
var ActiveStatuses = []BookingStatus{BookingPending, BookingConfirmed}

func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingConfirmed
}

func (s BookingStatus) Valid() bool {
	return s.Active() || s == BookingCancelled
}

// CanTransitionTo reports whether an administrator may move a booking from s
// to next. Staying in the same status is handled by callers as a no-op.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingPending:
		return next == BookingConfirmed || next == BookingCancelled
	case BookingConfirmed:
		return next == BookingCancelled
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
)

const (
	SourceWeb      = "web"
	SourceTelegram = "telegram"
)

type Booking struct {
	ID                string        `json:"id"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
	Name              string        `json:"name"`
	Contact           string        `json:"contact"`
	ContactNormalized string        `json:"-"`
	CheckIn           time.Time     `json:"-"`
	CheckOut          time.Time     `json:"-"`
	Adults            int           `json:"adults"`
	ChildrenTotal     int           `json:"childrenTotal"`
	ChildrenOver6     int           `json:"childrenOver6"`
	HasPet            bool          `json:"hasPet"`
	Status            BookingStatus `json:"status"`
	PaymentStatus     PaymentStatus `json:"paymentStatus"`
	QuoteTotal        *int64        `json:"quoteTotal"`
	Currency          string        `json:"currency"`
	Source            string        `json:"source"`
	Comment           *string       `json:"comment,omitempty"`
	UserID            *int64        `json:"userId,omitempty"`
}

// Range returns the stay as a half-open date range.
func (b *Booking) Range() daterange.Range {
	return daterange.Range{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
}

func (b *Booking) Nights() int { return b.Range().Nights() }

func (b *Booking) Guests() int { return b.Adults + b.ChildrenTotal }

// BookingFilter narrows admin listings.
type BookingFilter struct {
	Status *BookingStatus
	Limit  int
}
