// Package contact turns the free-form contact strings guests type into
// canonical lookup keys. The same key is stored on bookings and compared
// against user identifiers, so every writer and reader must go through here.
package contact

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultCountryCode is the dialling prefix applied to local phone numbers.
const DefaultCountryCode = "380"

const minPhoneDigits = 10

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Kind tags which identifier category a raw string matched.
type Kind int

const (
	KindNone Kind = iota
	KindEmail
	KindPhone
	KindTelegram
)

func (k Kind) String() string {
	switch k {
	case KindEmail:
		return "email"
	case KindPhone:
		return "phone"
	case KindTelegram:
		return "telegram"
	default:
		return "none"
	}
}

// Identifier is a normalized value together with its category.
type Identifier struct {
	Kind  Kind
	Value string
}

func (id Identifier) Valid() bool { return id.Kind != KindNone && id.Value != "" }

// Normalizer holds the locale knobs of normalization.
type Normalizer struct {
	CountryCode string
}

// Default is the normalizer for the property's home market.
var Default = Normalizer{CountryCode: DefaultCountryCode}

func (n Normalizer) countryCode() string {
	if n.CountryCode == "" {
		return DefaultCountryCode
	}
	return strings.TrimPrefix(n.CountryCode, "+")
}

// Email trims and lowercases the input and accepts it only when it has the
// local@domain.tld shape.
func (n Normalizer) Email(raw string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" || !emailRe.MatchString(v) {
		return "", false
	}
	return v, true
}

// Phone keeps digits only and rewrites them into +<country><number>.
func (n Normalizer) Phone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < minPhoneDigits {
		return "", false
	}

	cc := n.countryCode()
	switch {
	case strings.HasPrefix(digits, cc):
		return "+" + digits, true
	case strings.HasPrefix(digits, "0") && len(digits) == 10:
		return "+" + cc + digits[1:], true
	default:
		return "+" + cc + digits, true
	}
}

// Telegram accepts a handle with or without leading @ signs.
func (n Normalizer) Telegram(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" || strings.IndexFunc(v, unicode.IsSpace) >= 0 {
		return "", false
	}
	if strings.Contains(v, "@") && emailRe.MatchString(v) {
		return "", false
	}
	v = strings.ToLower(strings.TrimLeft(v, "@"))
	if v == "" {
		return "", false
	}
	return v, true
}

// Split classifies raw with precedence email, phone, telegram.
func (n Normalizer) Split(raw string) Identifier {
	if v, ok := n.Email(raw); ok {
		return Identifier{Kind: KindEmail, Value: v}
	}
	if v, ok := n.Phone(raw); ok {
		return Identifier{Kind: KindPhone, Value: v}
	}
	if v, ok := n.Telegram(raw); ok {
		return Identifier{Kind: KindTelegram, Value: v}
	}
	return Identifier{Kind: KindNone}
}

// NormalizeAny never fails: unclassifiable input falls back to its trimmed
// lowercase form so it can still be stored and matched verbatim.
func (n Normalizer) NormalizeAny(raw string) string {
	if id := n.Split(raw); id.Valid() {
		return id.Value
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// Keys returns every distinct non-empty normalized variant of raw.
func (n Normalizer) Keys(raw string) []string {
	out := make([]string, 0, 4)
	seen := make(map[string]struct{}, 4)
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	add(n.NormalizeAny(raw))
	if v, ok := n.Email(raw); ok {
		add(v)
	}
	if v, ok := n.Phone(raw); ok {
		add(v)
	}
	if v, ok := n.Telegram(raw); ok {
		add(v)
	}
	return out
}
