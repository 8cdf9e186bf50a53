// Package admin serves the operator's booking overview and export.
package admin

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"cottage/internal/domain"
	"cottage/internal/pkg/daterange"
)

const maxListLimit = 500

type BookingReader interface {
	List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error)
	ListForDay(ctx context.Context, day time.Time) ([]domain.Booking, error)
	Today() time.Time
}

type Service struct {
	bookings BookingReader
	loc      *time.Location
}

func NewService(bookings BookingReader, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{bookings: bookings, loc: loc}
}

// ParseFilter reads ?status= and ?limit=; unknown statuses are rejected.
func ParseFilter(status, limit string) (domain.BookingFilter, error) {
	var f domain.BookingFilter
	if s := strings.ToUpper(strings.TrimSpace(status)); s != "" {
		st := domain.BookingStatus(s)
		if !st.Valid() {
			return f, fmt.Errorf("unknown status %q", status)
		}
		f.Status = &st
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return f, fmt.Errorf("limit must be a non-negative integer")
		}
		f.Limit = min(n, maxListLimit)
	}
	return f, nil
}

func (s *Service) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	return s.bookings.List(ctx, f)
}

// Today returns arrivals and departures of the current property day.
func (s *Service) Today(ctx context.Context) ([]domain.Booking, error) {
	return s.bookings.ListForDay(ctx, s.bookings.Today())
}

type Stats struct {
	Total     int   `json:"total"`
	Pending   int   `json:"pending"`
	Confirmed int   `json:"confirmed"`
	Cancelled int   `json:"cancelled"`
	Paid      int   `json:"paid"`
	Revenue   int64 `json:"confirmedRevenueUAH"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	all, err := s.bookings.List(ctx, domain.BookingFilter{})
	if err != nil {
		return nil, err
	}
	st := &Stats{Total: len(all)}
	for _, b := range all {
		switch b.Status {
		case domain.BookingPending:
			st.Pending++
		case domain.BookingConfirmed:
			st.Confirmed++
			if b.QuoteTotal != nil {
				st.Revenue += *b.QuoteTotal
			}
		case domain.BookingCancelled:
			st.Cancelled++
		}
		if b.PaymentStatus == domain.PaymentPaid {
			st.Paid++
		}
	}
	return st, nil
}

var exportHeader = []string{"id", "createdAt", "name", "contact", "checkIn", "checkOut", "guests", "status", "source", "comment"}

// WriteCSV renders bookings for spreadsheet import: UTF-8 BOM, a sep=; hint
// line, then semicolon separated rows.
func (s *Service) WriteCSV(w io.Writer, bookings []domain.Booking) error {
	if _, err := io.WriteString(w, "\ufeffsep=;\r\n"); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'
	cw.UseCRLF = true

	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, b := range bookings {
		comment := ""
		if b.Comment != nil {
			comment = *b.Comment
		}
		row := []string{
			b.ID,
			b.CreatedAt.In(s.loc).Format("2006-01-02 15:04"),
			b.Name,
			b.Contact,
			daterange.Format(b.CheckIn),
			daterange.Format(b.CheckOut),
			strconv.Itoa(b.Guests()),
			string(b.Status),
			b.Source,
			comment,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
