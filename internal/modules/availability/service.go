// Package availability answers which nights are taken.
package availability

import (
	"context"
	"fmt"

	"cottage/internal/pkg/daterange"
)

// BusyRange is the wire form of an occupied stay. End is the check-out day
// and is free for a new arrival.
type BusyRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// BusyRanges lists every PENDING or CONFIRMED stay.
func (s *Service) BusyRanges(ctx context.Context) ([]daterange.Range, error) {
	bookings, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	out := make([]daterange.Range, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, daterange.Range{
			CheckIn:  daterange.StartOfDay(b.CheckIn),
			CheckOut: daterange.StartOfDay(b.CheckOut),
		})
	}
	return out, nil
}

func (s *Service) Busy(ctx context.Context) ([]BusyRange, error) {
	ranges, err := s.BusyRanges(ctx)
	if err != nil {
		return nil, err
	}
	return toWire(ranges), nil
}

func (s *Service) HasOverlap(ctx context.Context, rng daterange.Range) (bool, error) {
	taken, err := s.repo.HasOverlap(ctx, rng)
	if err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}
	return taken, nil
}

// IsRangeFree reports whether rng fits between the current busy ranges.
func (s *Service) IsRangeFree(ctx context.Context, rng daterange.Range) (bool, error) {
	busy, err := s.BusyRanges(ctx)
	if err != nil {
		return false, err
	}
	return daterange.IsFree(rng, busy), nil
}

func toWire(ranges []daterange.Range) []BusyRange {
	out := make([]BusyRange, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, BusyRange{Start: daterange.Format(r.CheckIn), End: daterange.Format(r.CheckOut)})
	}
	return out
}
