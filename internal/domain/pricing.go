package domain

import "time"

// DefaultWeekendDays applies when a season does not list its own weekend days.
const DefaultWeekendDays = "FRI,SAT"

const DefaultCurrency = "UAH"

type Season struct {
	ID           int64     `json:"id"`
	StartDate    time.Time `json:"-"`
	EndDate      time.Time `json:"-"`
	WeekdayPrice int64     `json:"weekdayPrice"`
	WeekendPrice int64     `json:"weekendPrice"`
	WeekendDays  string    `json:"weekendDays"`
	Currency     string    `json:"currency"`
}

// Contains reports whether d falls within the season, both ends inclusive.
func (s Season) Contains(d time.Time) bool {
	return !d.Before(s.StartDate) && !d.After(s.EndDate)
}

type PriceOverride struct {
	Date  time.Time `json:"-"`
	Price int64     `json:"price"`
}

type SurchargeType string

const (
	SurchargeExtraGuest   SurchargeType = "EXTRA_GUEST"
	SurchargePet          SurchargeType = "PET"
	SurchargeChildOverAge SurchargeType = "CHILD_OVER_AGE"
)

func (t SurchargeType) Valid() bool {
	return t == SurchargeExtraGuest || t == SurchargePet || t == SurchargeChildOverAge
}

type SurchargeUnit string

const (
	PerNight SurchargeUnit = "PER_NIGHT"
	PerStay  SurchargeUnit = "PER_STAY"
)

func (u SurchargeUnit) Valid() bool { return u == PerNight || u == PerStay }

// SurchargeParams carries the per-type knobs stored alongside a rule.
type SurchargeParams struct {
	IncludedGuests *int `json:"includedGuests,omitempty"`
	AgeThreshold   *int `json:"ageThreshold,omitempty"`
}

type Surcharge struct {
	ID     int64           `json:"id"`
	Type   SurchargeType   `json:"type"`
	Amount int64           `json:"amount"`
	Unit   SurchargeUnit   `json:"unit"`
	Active bool            `json:"active"`
	Params SurchargeParams `json:"params"`
}
