package pricing

import (
	"context"

	"cottage/internal/domain"
	"cottage/internal/pkg/daterange"
)

// Repository is the pricing configuration store.
type Repository interface {
	ListSeasons(ctx context.Context) ([]domain.Season, error)
	ListOverrides(ctx context.Context, rng daterange.Range) ([]domain.PriceOverride, error)
	ListSurcharges(ctx context.Context) ([]domain.Surcharge, error)
	CreateSeason(ctx context.Context, s *domain.Season) error
	UpsertOverride(ctx context.Context, o domain.PriceOverride) error
	DeleteOverride(ctx context.Context, date string) error
	UpsertSurcharge(ctx context.Context, s *domain.Surcharge) error
}
