package booking

import (
	"context"
	"time"

	"cottage/internal/domain"
	"cottage/internal/pkg/daterange"
	engine "cottage/internal/pricing"
)

type BookingRepository interface {
	HasOverlap(ctx context.Context, rng daterange.Range) (bool, error)
	CreateExclusive(ctx context.Context, b *domain.Booking) error
	CreateExclusiveForPhone(ctx context.Context, b *domain.Booking, phone, name string) (*domain.User, bool, error)
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error)
	SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error
	List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Booking, error)
	ListActiveByUser(ctx context.Context, userID int64, limit int) ([]domain.Booking, error)
	ListByDay(ctx context.Context, day time.Time) ([]domain.Booking, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type Quoter interface {
	QuoteStay(ctx context.Context, in engine.QuoteInput) (*engine.Quote, error)
}

// Notifier must not block; implementations queue and return.
type Notifier interface {
	BookingCreated(b *domain.Booking, owner *domain.User)
	StatusChanged(b *domain.Booking, owner *domain.User)
	PaymentConfirmed(b *domain.Booking, owner *domain.User)
}

// Publisher is told whenever the set of busy nights may have changed.
type Publisher interface {
	AvailabilityChanged()
}
