package pricing

import (
	engine "cottage/internal/pricing"
)

type QuoteRequest struct {
	CheckIn       string
	CheckOut      string
	Adults        int
	ChildrenOver6 int
	HasPet        bool
}

type MonthCalendar struct {
	Month    string            `json:"month"`
	Currency string            `json:"currency"`
	Days     []engine.DayPrice `json:"days"`
}

type SeasonRequest struct {
	StartDate    string `json:"startDate" binding:"required"`
	EndDate      string `json:"endDate" binding:"required"`
	WeekdayPrice int64  `json:"weekdayPrice" binding:"gte=0"`
	WeekendPrice int64  `json:"weekendPrice" binding:"gte=0"`
	WeekendDays  string `json:"weekendDays"`
}

type OverrideRequest struct {
	Price int64 `json:"price" binding:"gte=0"`
}

type SurchargeRequest struct {
	Amount         int64  `json:"amount" binding:"gte=0"`
	Unit           string `json:"unit" binding:"required"`
	Active         *bool  `json:"active"`
	IncludedGuests *int   `json:"includedGuests" binding:"omitempty,gte=0"`
	AgeThreshold   *int   `json:"ageThreshold" binding:"omitempty,gte=0"`
}
