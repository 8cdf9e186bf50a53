// Package daterange models half-open stays [CheckIn, CheckOut) over calendar days.
package daterange

import (
	"errors"
	"time"
)

// Layout is the wire and storage format of calendar dates.
const Layout = "2006-01-02"

var ErrInvalidRange = errors.New("check-out must be after check-in")

// Range is a stay; CheckOut is the departure day and is not occupied.
type Range struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// New builds a Range from two days, rejecting empty or inverted ranges.
func New(checkIn, checkOut time.Time) (Range, error) {
	r := Range{CheckIn: StartOfDay(checkIn), CheckOut: StartOfDay(checkOut)}
	if !r.CheckOut.After(r.CheckIn) {
		return Range{}, ErrInvalidRange
	}
	return r, nil
}

// Parse reads a YYYY-MM-DD date as UTC midnight.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, s, time.UTC)
}

// Format renders t's calendar day.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// StartOfDay drops the clock part and keeps the calendar day of t in its own
// location, re-anchored at UTC midnight so days compare across zones.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day as seen in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return StartOfDay(now.In(loc))
}

// Overlaps reports whether two half-open ranges share at least one night.
// Back-to-back stays, where one checks out the day the other checks in, do not.
func (r Range) Overlaps(o Range) bool {
	return r.CheckIn.Before(o.CheckOut) && r.CheckOut.After(o.CheckIn)
}

// Nights is the number of occupied nights.
func (r Range) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// Days lists every occupied night, CheckIn included and CheckOut excluded.
func (r Range) Days() []time.Time {
	n := r.Nights()
	out := make([]time.Time, 0, n)
	for d := r.CheckIn; d.Before(r.CheckOut); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Contains reports whether day d is an occupied night of r.
func (r Range) Contains(d time.Time) bool {
	d = StartOfDay(d)
	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}

// IsFree reports whether r overlaps none of busy.
func IsFree(r Range, busy []Range) bool {
	for _, b := range busy {
		if r.Overlaps(b) {
			return false
		}
	}
	return true
}
