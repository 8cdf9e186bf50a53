package notification

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"cottage/internal/domain"
)

var monthsGenitive = [...]string{
	"січня", "лютого", "березня", "квітня", "травня", "червня",
	"липня", "серпня", "вересня", "жовтня", "листопада", "грудня",
}

// FormatDate renders a calendar day the way guests read it, e.g. "24 жовтня 2025".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%02d %s %d", t.Day(), monthsGenitive[t.Month()-1], t.Year())
}

// FormatMoney groups thousands with a plain space: 15800 -> "₴15 800".
func FormatMoney(amount *int64) string {
	if amount == nil {
		return "—"
	}
	v := *amount
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return "₴" + sign + b.String()
}

func StatusEmoji(s domain.BookingStatus) string {
	switch s {
	case domain.BookingConfirmed:
		return "✅"
	case domain.BookingCancelled:
		return "❌"
	default:
		return "⏳"
	}
}

func StatusText(s domain.BookingStatus) string {
	switch s {
	case domain.BookingConfirmed:
		return "Підтверджено"
	case domain.BookingCancelled:
		return "Скасовано"
	case domain.BookingPending:
		return "Очікує підтвердження"
	default:
		return string(s)
	}
}

// Escape quotes user supplied text for HTML parse mode.
func Escape(s string) string { return html.EscapeString(s) }

// BookingSummary is the short multi-line block used in listings.
func BookingSummary(b *domain.Booking, withGuest bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s <code>%s</code>\n", StatusEmoji(b.Status), b.ID)
	if withGuest {
		fmt.Fprintf(&sb, "👤 %s\n📞 %s\n", Escape(b.Name), Escape(b.Contact))
	}
	fmt.Fprintf(&sb, "📅 %s - %s\n", FormatDate(b.CheckIn), FormatDate(b.CheckOut))
	fmt.Fprintf(&sb, "👥 Гостей: %d\n", b.Guests())
	fmt.Fprintf(&sb, "💰 Сума: %s\n", FormatMoney(b.QuoteTotal))
	fmt.Fprintf(&sb, "Статус: %s\n", StatusText(b.Status))
	return sb.String()
}
