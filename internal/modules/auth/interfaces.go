package auth

import (
	"context"

	"cottage/internal/domain"
	"cottage/internal/pkg/contact"
)

// UserRepository is the subset of the user store auth needs.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	FindByIdentifier(ctx context.Context, id contact.Identifier) (*domain.User, error)
	SetRole(ctx context.Context, userID int64, role domain.UserRole) error
}

type Linker interface {
	LinkUser(ctx context.Context, userID int64) (int64, error)
	LinkKeys(ctx context.Context, userID int64, keys []string) (int64, error)
}

type BookingCounter interface {
	CountByUser(ctx context.Context, userID int64) (int64, error)
}

type tokenIssuer interface {
	GenerateToken(userID int64, role string) (string, error)
}
