// Package seed loads base pricing into an empty database.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"

	"cottage/internal/domain"
	"cottage/internal/pkg/daterange"
)

type File struct {
	Seasons    []Season    `toml:"seasons"`
	Surcharges []Surcharge `toml:"surcharges"`
}

type Season struct {
	StartDate    string `toml:"start_date"`
	EndDate      string `toml:"end_date"`
	WeekdayPrice int64  `toml:"weekday_price"`
	WeekendPrice int64  `toml:"weekend_price"`
	WeekendDays  string `toml:"weekend_days"`
	Currency     string `toml:"currency"`
}

type Surcharge struct {
	Type           string `toml:"type"`
	Amount         int64  `toml:"amount"`
	Unit           string `toml:"unit"`
	IncludedGuests *int   `toml:"included_guests"`
	AgeThreshold   *int   `toml:"age_threshold"`
}

// Store is the slice of the pricing repository the seeder writes through.
type Store interface {
	CountSeasons(ctx context.Context) (int64, error)
	CreateSeason(ctx context.Context, s *domain.Season) error
	ListSurcharges(ctx context.Context) ([]domain.Surcharge, error)
	UpsertSurcharge(ctx context.Context, s *domain.Surcharge) error
}

type Result struct {
	SeasonsCreated    int
	SurchargesCreated int
}

func Load(path string) (*File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &f, nil
}

func Parse(data string) (*File, error) {
	var f File
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Apply creates the seasons only when none exist, and each surcharge only
// when no active rule of its type exists. Running it twice is a no-op.
func Apply(ctx context.Context, store Store, f *File, log *slog.Logger) (Result, error) {
	var res Result

	seasons, err := f.domainSeasons()
	if err != nil {
		return res, err
	}
	surcharges, err := f.domainSurcharges()
	if err != nil {
		return res, err
	}

	count, err := store.CountSeasons(ctx)
	if err != nil {
		return res, fmt.Errorf("count seasons: %w", err)
	}
	if count == 0 {
		for i := range seasons {
			if err := store.CreateSeason(ctx, &seasons[i]); err != nil {
				return res, fmt.Errorf("create season: %w", err)
			}
			res.SeasonsCreated++
			log.Info("season created",
				"start", daterange.Format(seasons[i].StartDate),
				"end", daterange.Format(seasons[i].EndDate))
		}
	} else {
		log.Info("seasons already exist, skipping", "count", count)
	}

	existing, err := store.ListSurcharges(ctx)
	if err != nil {
		return res, fmt.Errorf("list surcharges: %w", err)
	}
	active := make(map[domain.SurchargeType]bool, len(existing))
	for _, s := range existing {
		if s.Active {
			active[s.Type] = true
		}
	}
	for i := range surcharges {
		s := &surcharges[i]
		if active[s.Type] {
			log.Info("surcharge exists, skipping", "type", s.Type)
			continue
		}
		if err := store.UpsertSurcharge(ctx, s); err != nil {
			return res, fmt.Errorf("create surcharge %s: %w", s.Type, err)
		}
		active[s.Type] = true
		res.SurchargesCreated++
		log.Info("surcharge created", "type", s.Type, "amount", s.Amount, "unit", s.Unit)
	}
	return res, nil
}

func (f *File) domainSeasons() ([]domain.Season, error) {
	out := make([]domain.Season, 0, len(f.Seasons))
	for _, s := range f.Seasons {
		start, err := daterange.Parse(s.StartDate)
		if err != nil {
			return nil, fmt.Errorf("season start_date %q: %w", s.StartDate, err)
		}
		end, err := daterange.Parse(s.EndDate)
		if err != nil {
			return nil, fmt.Errorf("season end_date %q: %w", s.EndDate, err)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("season %s..%s ends before it starts", s.StartDate, s.EndDate)
		}
		if s.WeekdayPrice < 0 || s.WeekendPrice < 0 {
			return nil, fmt.Errorf("season %s..%s has a negative price", s.StartDate, s.EndDate)
		}
		weekend := strings.ToUpper(strings.TrimSpace(s.WeekendDays))
		if weekend == "" {
			weekend = domain.DefaultWeekendDays
		}
		currency := strings.ToUpper(strings.TrimSpace(s.Currency))
		if currency == "" {
			currency = domain.DefaultCurrency
		}
		out = append(out, domain.Season{
			StartDate:    start,
			EndDate:      end,
			WeekdayPrice: s.WeekdayPrice,
			WeekendPrice: s.WeekendPrice,
			WeekendDays:  weekend,
			Currency:     currency,
		})
	}
	return out, nil
}

func (f *File) domainSurcharges() ([]domain.Surcharge, error) {
	out := make([]domain.Surcharge, 0, len(f.Surcharges))
	for _, s := range f.Surcharges {
		typ := domain.SurchargeType(strings.ToUpper(s.Type))
		if !typ.Valid() {
			return nil, fmt.Errorf("unknown surcharge type %q", s.Type)
		}
		unit := domain.SurchargeUnit(strings.ToUpper(s.Unit))
		if !unit.Valid() {
			return nil, fmt.Errorf("surcharge %s: unknown unit %q", typ, s.Unit)
		}
		if s.Amount < 0 {
			return nil, fmt.Errorf("surcharge %s: negative amount", typ)
		}
		out = append(out, domain.Surcharge{
			Type:   typ,
			Amount: s.Amount,
			Unit:   unit,
			Active: true,
			Params: domain.SurchargeParams{
				IncludedGuests: s.IncludedGuests,
				AgeThreshold:   s.AgeThreshold,
			},
		})
	}
	return out, nil
}
