// Package linking attaches anonymous bookings to the account that owns
// their contact.
package linking

import (
	"context"
	"fmt"
	"log/slog"

	"cottage/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type BookingRepository interface {
	LinkUnowned(ctx context.Context, userID int64, keys []string) (int64, error)
}

type Resolver struct {
	users    UserRepository
	bookings BookingRepository
	log      *slog.Logger
}

func NewResolver(users UserRepository, bookings BookingRepository, log *slog.Logger) *Resolver {
	return &Resolver{users: users, bookings: bookings, log: log}
}

// LinkUser claims every unowned booking whose normalized contact equals one
// of the user's stored identifiers. Running it twice links nothing new.
func (r *Resolver) LinkUser(ctx context.Context, userID int64) (int64, error) {
	u, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load user %d: %w", userID, err)
	}
	return r.LinkKeys(ctx, userID, u.LinkKeys())
}

// LinkKeys is LinkUser with the identifiers supplied by the caller.
func (r *Resolver) LinkKeys(ctx context.Context, userID int64, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := r.bookings.LinkUnowned(ctx, userID, keys)
	if err != nil {
		return 0, fmt.Errorf("link bookings to user %d: %w", userID, err)
	}
	if n > 0 {
		r.log.Info("bookings linked", "user_id", userID, "count", n)
	}
	return n, nil
}
