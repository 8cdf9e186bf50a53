package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"cottage/internal/domain"
	"cottage/internal/middleware"
	"cottage/internal/pkg/contact"
	"cottage/internal/pkg/daterange"
	engine "cottage/internal/pricing"
	"cottage/internal/repository"
)

const defaultUserListLimit = 10

type Options struct {
	AdminKey         string
	Location         *time.Location
	Normalizer       contact.Normalizer
	Currency         string
	PaymentRecipient string
	PaymentIBAN      string
	Now              func() time.Time
}

type Metrics struct {
	created   *prometheus.CounterVec
	conflicts prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		created: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cottage",
			Name:      "bookings_created_total",
			Help:      "Bookings created, by source.",
		}, []string{"source"}),
		conflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: "cottage",
			Name:      "booking_conflicts_total",
			Help:      "Booking attempts rejected because the dates were taken.",
		}),
	}
}

type Service struct {
	bookings  BookingRepository
	users     UserRepository
	quoter    Quoter
	notifier  Notifier
	publisher Publisher
	metrics   *Metrics
	log       *slog.Logger
	opts      Options
}

func NewService(
	bookings BookingRepository,
	users UserRepository,
	quoter Quoter,
	notifier Notifier,
	publisher Publisher,
	metrics *Metrics,
	log *slog.Logger,
	opts Options,
) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Currency == "" {
		opts.Currency = domain.DefaultCurrency
	}
	if opts.Normalizer.CountryCode == "" {
		opts.Normalizer = contact.Default
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}
	return &Service{
		bookings:  bookings,
		users:     users,
		quoter:    quoter,
		notifier:  notifier,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		opts:      opts,
	}
}

// Today is the current calendar day at the property.
func (s *Service) Today() time.Time {
	return daterange.Today(s.opts.Now(), s.opts.Location)
}

// CreateBooking validates the request in a fixed order, stopping at the
// first failure, then stores a PENDING booking with its quote frozen.
func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*CreateResult, error) {
	name := strings.TrimSpace(req.Name)
	rawContact := strings.TrimSpace(req.Contact)
	if name == "" || rawContact == "" {
		return nil, invalid("name", "Вкажіть ім'я та контакт")
	}

	checkIn, err1 := daterange.Parse(strings.TrimSpace(req.CheckIn))
	checkOut, err2 := daterange.Parse(strings.TrimSpace(req.CheckOut))
	if err1 != nil || err2 != nil {
		return nil, invalid("checkIn", "Невірний формат дат")
	}

	rng, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return nil, invalid("checkOut", "Дата виїзду має бути пізніше дати заїзду")
	}

	if rng.CheckIn.Before(s.Today()) {
		return nil, invalid("checkIn", "Дата заїзду не може бути в минулому")
	}

	if req.Adults < 1 {
		return nil, invalid("adults", "Має бути хоча б один дорослий")
	}
	if req.ChildrenTotal < 0 {
		return nil, invalid("childrenTotal", "Кількість дітей не може бути відʼємною")
	}
	if req.ChildrenOver6 < 0 || req.ChildrenOver6 > req.ChildrenTotal {
		return nil, invalid("childrenOver6", "Кількість дітей старших 6 років некоректна")
	}

	taken, err := s.bookings.HasOverlap(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("check overlap: %w", err)
	}
	if taken {
		s.metrics.conflicts.Inc()
		return nil, ErrConflict
	}

	owner, err := s.sessionOwner(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	quote, err := s.quoter.QuoteStay(ctx, engine.QuoteInput{
		Range:         rng,
		Adults:        req.Adults,
		ChildrenOver6: req.ChildrenOver6,
		HasPet:        req.HasPet,
	})
	if err != nil {
		return nil, fmt.Errorf("quote stay: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate booking id: %w", err)
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = domain.SourceWeb
	}
	total := quote.TotalUAH

	b := &domain.Booking{
		ID:                id.String(),
		Name:              name,
		Contact:           rawContact,
		ContactNormalized: s.opts.Normalizer.NormalizeAny(rawContact),
		CheckIn:           rng.CheckIn,
		CheckOut:          rng.CheckOut,
		Adults:            req.Adults,
		ChildrenTotal:     req.ChildrenTotal,
		ChildrenOver6:     req.ChildrenOver6,
		HasPet:            req.HasPet,
		Status:            domain.BookingPending,
		PaymentStatus:     domain.PaymentUnpaid,
		QuoteTotal:        &total,
		Currency:          s.opts.Currency,
		Source:            source,
		Comment:           trimmedOrNil(req.Comment),
	}
	if owner != nil {
		b.UserID = &owner.ID
	}

	if owner == nil {
		owner, err = s.createForGuest(ctx, b, rawContact, name)
	} else {
		err = s.bookings.CreateExclusive(ctx, b)
	}
	if err != nil {
		if errors.Is(err, repository.ErrRangeTaken) {
			s.metrics.conflicts.Inc()
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.metrics.created.WithLabelValues(source).Inc()
	s.log.Info("booking created",
		"booking_id", b.ID,
		"check_in", daterange.Format(b.CheckIn),
		"check_out", daterange.Format(b.CheckOut),
		"total", total,
		"user_id", b.UserID,
	)

	s.publisher.AvailabilityChanged()
	s.notifier.BookingCreated(b, owner)

	return &CreateResult{Booking: b, Quote: quote}, nil
}

func (s *Service) sessionOwner(ctx context.Context, userID *int64) (*domain.User, error) {
	if userID == nil {
		return nil, nil
	}
	u, err := s.users.GetByID(ctx, *userID)
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}
	return u, nil
}

// createForGuest stores an anonymous booking. A guest who left a phone
// number gets a password-less account keyed by it, created together with
// the booking.
func (s *Service) createForGuest(ctx context.Context, b *domain.Booking, rawContact, name string) (*domain.User, error) {
	id := s.opts.Normalizer.Split(rawContact)
	if id.Kind != contact.KindPhone {
		return nil, s.bookings.CreateExclusive(ctx, b)
	}
	u, created, err := s.bookings.CreateExclusiveForPhone(ctx, b, id.Value, name)
	if err != nil {
		return nil, err
	}
	b.UserID = &u.ID
	if created {
		s.log.Info("user created from booking", "user_id", u.ID)
	}
	return u, nil
}

func (s *Service) authorize(a Actor) error {
	if a.TrustedChannel {
		return nil
	}
	if s.opts.AdminKey == "" || !middleware.KeyMatches(s.opts.AdminKey, a.AdminKey) {
		return ErrUnauthorized
	}
	return nil
}

// ParseTargetStatus accepts only the statuses an operator may set.
func ParseTargetStatus(raw string) (domain.BookingStatus, error) {
	st := domain.BookingStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if st != domain.BookingConfirmed && st != domain.BookingCancelled {
		return "", invalid("status", "status must be CONFIRMED or CANCELLED")
	}
	return st, nil
}

// SetStatus confirms or cancels a booking. Asking for the current status
// returns the booking unchanged.
func (s *Service) SetStatus(ctx context.Context, id string, next domain.BookingStatus, actor Actor) (*domain.Booking, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	if next != domain.BookingConfirmed && next != domain.BookingCancelled {
		return nil, invalid("status", "status must be CONFIRMED or CANCELLED")
	}

	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status == next {
		return cur, nil
	}
	if !cur.Status.CanTransitionTo(next) {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, cur.Status, next)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStatusChanged):
			return nil, ErrInvalidStatusTransition
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.log.Info("booking status changed", "booking_id", id, "from", cur.Status, "to", next)
	s.publisher.AvailabilityChanged()
	s.notifier.StatusChanged(updated, s.ownerOf(ctx, updated))
	return updated, nil
}

// ConfirmPayment marks a booking paid and confirms it if still pending.
func (s *Service) ConfirmPayment(ctx context.Context, id string, actor Actor) (*domain.Booking, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}

	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == domain.BookingCancelled {
		return nil, ErrInvalidStatusTransition
	}

	if b.PaymentStatus != domain.PaymentPaid {
		if err := s.bookings.SetPaymentStatus(ctx, id, domain.PaymentPaid); err != nil {
			return nil, fmt.Errorf("set payment status: %w", err)
		}
		b.PaymentStatus = domain.PaymentPaid
	}

	if b.Status == domain.BookingPending {
		updated, err := s.bookings.UpdateStatus(ctx, id, domain.BookingPending, domain.BookingConfirmed)
		if err != nil && !errors.Is(err, repository.ErrStatusChanged) {
			return nil, fmt.Errorf("confirm paid booking: %w", err)
		}
		if updated != nil {
			b = updated
			s.publisher.AvailabilityChanged()
		}
	}

	s.log.Info("payment confirmed", "booking_id", id)
	s.notifier.PaymentConfirmed(b, s.ownerOf(ctx, b))
	return b, nil
}

// ownerOf is best effort: a missing owner only means nobody to notify.
func (s *Service) ownerOf(ctx context.Context, b *domain.Booking) *domain.User {
	if b.UserID == nil {
		return nil
	}
	u, err := s.users.GetByID(ctx, *b.UserID)
	if err != nil {
		s.log.Warn("load booking owner", "booking_id", b.ID, "error", err)
		return nil
	}
	return u
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (s *Service) PaymentInfo(ctx context.Context, id string) (*PaymentInfo, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PaymentInfo{
		BookingID:     b.ID,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		AmountUAH:     b.QuoteTotal,
		Currency:      b.Currency,
		Recipient:     s.opts.PaymentRecipient,
		IBAN:          s.opts.PaymentIBAN,
		Purpose:       fmt.Sprintf("Оплата бронювання %s", b.ID),
	}, nil
}

func (s *Service) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	return s.bookings.List(ctx, f)
}

func (s *Service) ListForUser(ctx context.Context, userID int64, limit int) ([]domain.Booking, error) {
	if limit <= 0 {
		limit = defaultUserListLimit
	}
	return s.bookings.ListByUser(ctx, userID, limit)
}

func (s *Service) ListActiveForUser(ctx context.Context, userID int64, limit int) ([]domain.Booking, error) {
	return s.bookings.ListActiveByUser(ctx, userID, limit)
}

// ListForDay returns active bookings arriving or leaving on day.
func (s *Service) ListForDay(ctx context.Context, day time.Time) ([]domain.Booking, error) {
	return s.bookings.ListByDay(ctx, daterange.StartOfDay(day))
}

func (s *Service) CountForUser(ctx context.Context, userID int64) (int64, error) {
	return s.bookings.CountByUser(ctx, userID)
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

type nopNotifier struct{}

func (nopNotifier) BookingCreated(*domain.Booking, *domain.User)   {}
func (nopNotifier) StatusChanged(*domain.Booking, *domain.User)    {}
func (nopNotifier) PaymentConfirmed(*domain.Booking, *domain.User) {}

type nopPublisher struct{}

func (nopPublisher) AvailabilityChanged() {}
