package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cottage/internal/domain"
	"cottage/internal/pkg/daterange"
	engine "cottage/internal/pricing"
)

const monthLayout = "2006-01"

type Service struct {
	repo     Repository
	currency string
}

func NewService(repo Repository, currency string) *Service {
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return &Service{repo: repo, currency: currency}
}

// Rules loads the configuration needed to price nights inside rng.
func (s *Service) Rules(ctx context.Context, rng daterange.Range) (*engine.Rules, error) {
	seasons, err := s.repo.ListSeasons(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	overrides, err := s.repo.ListOverrides(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	surcharges, err := s.repo.ListSurcharges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list surcharges: %w", err)
	}
	return engine.NewRules(seasons, overrides, surcharges, s.currency), nil
}

// QuoteStay prices an already validated stay.
func (s *Service) QuoteStay(ctx context.Context, in engine.QuoteInput) (*engine.Quote, error) {
	rules, err := s.Rules(ctx, in.Range)
	if err != nil {
		return nil, err
	}
	q := rules.Quote(in)
	return &q, nil
}

// Quote validates raw request values and prices the stay.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*engine.Quote, error) {
	checkIn, err := daterange.Parse(req.CheckIn)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid checkIn", ErrValidation)
	}
	checkOut, err := daterange.Parse(req.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid checkOut", ErrValidation)
	}
	rng, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.Adults < 0 || req.ChildrenOver6 < 0 {
		return nil, fmt.Errorf("%w: guest counts must not be negative", ErrValidation)
	}

	return s.QuoteStay(ctx, engine.QuoteInput{
		Range:         rng,
		Adults:        req.Adults,
		ChildrenOver6: req.ChildrenOver6,
		HasPet:        req.HasPet,
	})
}

// Month returns the per-day price calendar of a YYYY-MM month.
func (s *Service) Month(ctx context.Context, month string) (*MonthCalendar, error) {
	first, err := time.Parse(monthLayout, strings.TrimSpace(month))
	if err != nil {
		return nil, ErrBadMonth
	}
	rng := daterange.Range{CheckIn: first, CheckOut: first.AddDate(0, 1, 0)}

	rules, err := s.Rules(ctx, rng)
	if err != nil {
		return nil, err
	}
	return &MonthCalendar{
		Month:    first.Format(monthLayout),
		Currency: rules.Currency,
		Days:     rules.MonthCalendar(first.Year(), first.Month()),
	}, nil
}

func (s *Service) AddSeason(ctx context.Context, req SeasonRequest) (*domain.Season, error) {
	start, err := daterange.Parse(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid startDate", ErrValidation)
	}
	end, err := daterange.Parse(req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endDate", ErrValidation)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: endDate before startDate", ErrValidation)
	}
	weekend := strings.ToUpper(strings.ReplaceAll(req.WeekendDays, " ", ""))
	if weekend == "" {
		weekend = domain.DefaultWeekendDays
	}

	season := &domain.Season{
		StartDate:    start,
		EndDate:      end,
		WeekdayPrice: req.WeekdayPrice,
		WeekendPrice: req.WeekendPrice,
		WeekendDays:  weekend,
		Currency:     s.currency,
	}
	if err := s.repo.CreateSeason(ctx, season); err != nil {
		return nil, err
	}
	return season, nil
}

// SetOverride pins the price of one night; a nil price removes the pin.
func (s *Service) SetOverride(ctx context.Context, date string, price *int64) error {
	d, err := daterange.Parse(date)
	if err != nil {
		return fmt.Errorf("%w: invalid date", ErrValidation)
	}
	if price == nil {
		return s.repo.DeleteOverride(ctx, daterange.Format(d))
	}
	return s.repo.UpsertOverride(ctx, domain.PriceOverride{Date: d, Price: *price})
}

func (s *Service) SetSurcharge(ctx context.Context, typ string, req SurchargeRequest) (*domain.Surcharge, error) {
	st := domain.SurchargeType(strings.ToUpper(typ))
	if !st.Valid() {
		return nil, fmt.Errorf("%w: unknown surcharge type", ErrValidation)
	}
	unit := domain.SurchargeUnit(strings.ToUpper(req.Unit))
	if !unit.Valid() {
		return nil, fmt.Errorf("%w: unit must be PER_NIGHT or PER_STAY", ErrValidation)
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	sc := &domain.Surcharge{
		Type:   st,
		Amount: req.Amount,
		Unit:   unit,
		Active: active,
		Params: domain.SurchargeParams{IncludedGuests: req.IncludedGuests, AgeThreshold: req.AgeThreshold},
	}
	if err := s.repo.UpsertSurcharge(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}
