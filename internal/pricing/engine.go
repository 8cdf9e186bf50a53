// Package pricing computes nightly prices and stay quotes from seasons,
// per-date overrides and surcharge rules. It is pure: callers load the
// rules and this package only does arithmetic over them.
package pricing

import (
	"strings"
	"time"

	"cottage/internal/domain"
	"cottage/internal/pkg/daterange"
)

const defaultIncludedGuests = 2

// Source tells where a nightly price came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceSeason   Source = "season"
	SourceNone     Source = "none"
)

var weekdayCodes = map[string]time.Weekday{
	"SUN": time.Sunday,
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
}

// ParseWeekendDays reads a comma separated list such as "FRI,SAT".
// Unknown codes are ignored; an empty list yields the default weekend.
func ParseWeekendDays(csv string) map[time.Weekday]bool {
	out := make(map[time.Weekday]bool, 3)
	for _, part := range strings.Split(csv, ",") {
		if wd, ok := weekdayCodes[strings.ToUpper(strings.TrimSpace(part))]; ok {
			out[wd] = true
		}
	}
	if len(out) == 0 && csv != domain.DefaultWeekendDays {
		return ParseWeekendDays(domain.DefaultWeekendDays)
	}
	return out
}

// Rules is a snapshot of the pricing configuration.
type Rules struct {
	Seasons    []domain.Season
	Overrides  map[string]int64
	Surcharges []domain.Surcharge
	Currency   string

	weekends []map[time.Weekday]bool
}

// NewRules indexes seasons and overrides. Seasons keep their storage order;
// the first one containing a date wins.
func NewRules(seasons []domain.Season, overrides []domain.PriceOverride, surcharges []domain.Surcharge, currency string) *Rules {
	r := &Rules{
		Seasons:    seasons,
		Overrides:  make(map[string]int64, len(overrides)),
		Surcharges: surcharges,
		Currency:   currency,
		weekends:   make([]map[time.Weekday]bool, len(seasons)),
	}
	if r.Currency == "" {
		r.Currency = domain.DefaultCurrency
	}
	for _, o := range overrides {
		r.Overrides[daterange.Format(o.Date)] = o.Price
	}
	for i, s := range seasons {
		r.weekends[i] = ParseWeekendDays(s.WeekendDays)
	}
	return r
}

// PriceForDate returns the price of the night starting on d.
func (r *Rules) PriceForDate(d time.Time) (int64, Source) {
	d = daterange.StartOfDay(d)
	if p, ok := r.Overrides[daterange.Format(d)]; ok {
		return p, SourceOverride
	}
	for i, s := range r.Seasons {
		if !s.Contains(d) {
			continue
		}
		if r.weekends[i][d.Weekday()] {
			return s.WeekendPrice, SourceSeason
		}
		return s.WeekdayPrice, SourceSeason
	}
	return 0, SourceNone
}

// surcharge returns the first active rule of type t.
func (r *Rules) surcharge(t domain.SurchargeType) (domain.Surcharge, bool) {
	for _, s := range r.Surcharges {
		if s.Active && s.Type == t {
			return s, true
		}
	}
	return domain.Surcharge{}, false
}

type QuoteInput struct {
	Range         daterange.Range
	Adults        int
	ChildrenOver6 int
	HasPet        bool
}

type NightPrice struct {
	Date   string `json:"date"`
	Price  int64  `json:"price"`
	Source Source `json:"source"`
}

type SurchargeLine struct {
	Type      domain.SurchargeType `json:"type"`
	AmountUAH int64                `json:"amountUAH"`
	Unit      domain.SurchargeUnit `json:"unit"`
}

type Quote struct {
	CheckIn          string          `json:"checkIn"`
	CheckOut         string          `json:"checkOut"`
	Nights           int             `json:"nights"`
	PerNight         []NightPrice    `json:"perNight"`
	BaseNightsSumUAH int64           `json:"baseNightsSumUAH"`
	Surcharges       []SurchargeLine `json:"surcharges"`
	SurchargesSumUAH int64           `json:"surchargesSumUAH"`
	TotalUAH         int64           `json:"totalUAH"`
	Currency         string          `json:"currency"`
}

// Quote prices a stay. It never fails: nights without a configured price
// contribute zero.
func (r *Rules) Quote(in QuoteInput) Quote {
	days := in.Range.Days()
	nights := len(days)

	q := Quote{
		CheckIn:    daterange.Format(in.Range.CheckIn),
		CheckOut:   daterange.Format(in.Range.CheckOut),
		Nights:     nights,
		PerNight:   make([]NightPrice, 0, nights),
		Surcharges: make([]SurchargeLine, 0, 3),
		Currency:   r.Currency,
	}

	for _, d := range days {
		price, src := r.PriceForDate(d)
		q.PerNight = append(q.PerNight, NightPrice{Date: daterange.Format(d), Price: price, Source: src})
		q.BaseNightsSumUAH += price
	}

	if s, ok := r.surcharge(domain.SurchargeExtraGuest); ok {
		included := defaultIncludedGuests
		if s.Params.IncludedGuests != nil {
			included = *s.Params.IncludedGuests
		}
		extra := max(0, in.Adults+in.ChildrenOver6-included)
		if extra > 0 {
			amount := int64(extra) * s.Amount
			if s.Unit == domain.PerNight {
				amount *= int64(nights)
			}
			q.Surcharges = append(q.Surcharges, SurchargeLine{Type: s.Type, AmountUAH: amount, Unit: s.Unit})
		}
	}

	if s, ok := r.surcharge(domain.SurchargePet); ok && in.HasPet {
		amount := s.Amount
		if s.Unit == domain.PerNight {
			amount *= int64(nights)
		}
		q.Surcharges = append(q.Surcharges, SurchargeLine{Type: s.Type, AmountUAH: amount, Unit: s.Unit})
	}

	if s, ok := r.surcharge(domain.SurchargeChildOverAge); ok && in.ChildrenOver6 > 0 {
		amount := s.Amount * int64(in.ChildrenOver6)
		if s.Unit == domain.PerNight {
			amount *= int64(nights)
		}
		q.Surcharges = append(q.Surcharges, SurchargeLine{Type: s.Type, AmountUAH: amount, Unit: s.Unit})
	}

	for _, l := range q.Surcharges {
		q.SurchargesSumUAH += l.AmountUAH
	}
	q.TotalUAH = q.BaseNightsSumUAH + q.SurchargesSumUAH
	return q
}

type DayPrice struct {
	Date  string `json:"date"`
	Price int64  `json:"price"`
}

// MonthCalendar returns one entry per day of the given month.
func (r *Rules) MonthCalendar(year int, month time.Month) []DayPrice {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)

	out := make([]DayPrice, 0, 31)
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		price, _ := r.PriceForDate(d)
		out = append(out, DayPrice{Date: daterange.Format(d), Price: price})
	}
	return out
}
