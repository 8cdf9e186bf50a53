package booking

import (
	"time"

	"cottage/internal/domain"
	"cottage/internal/pkg/daterange"
	engine "cottage/internal/pricing"
)

type CreateBookingRequest struct {
	Name          string  `json:"name"`
	Contact       string  `json:"contact"`
	CheckIn       string  `json:"checkIn"`
	CheckOut      string  `json:"checkOut"`
	Adults        int     `json:"adults"`
	ChildrenTotal int     `json:"childrenTotal"`
	ChildrenOver6 int     `json:"childrenOver6"`
	HasPet        bool    `json:"hasPet"`
	Comment       *string `json:"comment"`
	Source        string  `json:"source"`

	// UserID is the signed-in account, taken from the session, never the body.
	UserID *int64 `json:"-"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ActionRequest is the form-friendly variant of a status change.
type ActionRequest struct {
	Action   string `json:"action" binding:"required"`
	AdminKey string `json:"adminKey"`
}

// Actor identifies who asks for a privileged change. TrustedChannel is set
// by callers that already authenticated the operator out of band.
type Actor struct {
	AdminKey       string
	TrustedChannel bool
}

type CreateResult struct {
	Booking *domain.Booking
	Quote   *engine.Quote
}

type BookingResponse struct {
	ID            string               `json:"id"`
	Status        domain.BookingStatus `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	Name          string               `json:"name"`
	Contact       string               `json:"contact"`
	CheckIn       string               `json:"checkIn"`
	CheckOut      string               `json:"checkOut"`
	Nights        int                  `json:"nights"`
	Adults        int                  `json:"adults"`
	ChildrenTotal int                  `json:"childrenTotal"`
	ChildrenOver6 int                  `json:"childrenOver6"`
	HasPet        bool                 `json:"hasPet"`
	QuoteTotalUAH *int64               `json:"quoteTotalUAH"`
	Currency      string               `json:"currency"`
	Source        string               `json:"source"`
	Comment       *string              `json:"comment,omitempty"`
	UserID        *int64               `json:"userId,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
}

func ToResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		Name:          b.Name,
		Contact:       b.Contact,
		CheckIn:       daterange.Format(b.CheckIn),
		CheckOut:      daterange.Format(b.CheckOut),
		Nights:        b.Nights(),
		Adults:        b.Adults,
		ChildrenTotal: b.ChildrenTotal,
		ChildrenOver6: b.ChildrenOver6,
		HasPet:        b.HasPet,
		QuoteTotalUAH: b.QuoteTotal,
		Currency:      b.Currency,
		Source:        b.Source,
		Comment:       b.Comment,
		UserID:        b.UserID,
		CreatedAt:     b.CreatedAt,
	}
}

func ToResponses(bs []domain.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bs))
	for i := range bs {
		out = append(out, ToResponse(&bs[i]))
	}
	return out
}

type CreateBookingResponse struct {
	Booking BookingResponse `json:"booking"`
	Quote   *engine.Quote   `json:"quote"`
}

// PaymentInfo is what the pay page shows for a booking.
type PaymentInfo struct {
	BookingID     string               `json:"bookingId"`
	Status        domain.BookingStatus `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	AmountUAH     *int64               `json:"amountUAH"`
	Currency      string               `json:"currency"`
	Recipient     string               `json:"recipient,omitempty"`
	IBAN          string               `json:"iban,omitempty"`
	Purpose       string               `json:"purpose"`
}
