package availability

import (
	"context"

	"cottage/internal/domain"
	"cottage/internal/pkg/daterange"
)

type Repository interface {
	ListActive(ctx context.Context) ([]domain.Booking, error)
	HasOverlap(ctx context.Context, rng daterange.Range) (bool, error)
}
