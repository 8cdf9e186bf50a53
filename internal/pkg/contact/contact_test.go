package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_Email(t *testing.T) {
	n := Default

	v, ok := n.Email("  John.Doe@Mail.COM ")
	assert.True(t, ok)
	assert.Equal(t, "john.doe@mail.com", v)

	for _, raw := range []string{"", "john", "john@mail", "a b@c.d", "@x"} {
		_, ok := n.Email(raw)
		assert.False(t, ok, raw)
	}
}

func TestNormalizer_Phone(t *testing.T) {
	n := Default

	cases := map[string]string{
		"050 123 45 67":      "+380501234567",
		"+380 (50) 123-4567": "+380501234567",
		"380501234567":       "+380501234567",
		"501234567890":       "+380501234567890",
	}
	for raw, want := range cases {
		got, ok := n.Phone(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := n.Phone("12345")
	assert.False(t, ok)
	_, ok = n.Phone("no digits here")
	assert.False(t, ok)
}

func TestNormalizer_Phone_CountryCode(t *testing.T) {
	n := Normalizer{CountryCode: "+48"}

	got, ok := n.Phone("0501234567")
	assert.True(t, ok)
	assert.Equal(t, "+48501234567", got)

	got, ok = n.Phone("48 601 234 567")
	assert.True(t, ok)
	assert.Equal(t, "+48601234567", got)
}

func TestNormalizer_Telegram(t *testing.T) {
	n := Default

	v, ok := n.Telegram(" @John_Doe ")
	assert.True(t, ok)
	assert.Equal(t, "john_doe", v)

	for _, raw := range []string{"", "@", "john doe", "john@mail.com"} {
		_, ok := n.Telegram(raw)
		assert.False(t, ok, raw)
	}
}

func TestNormalizer_SplitPrecedence(t *testing.T) {
	n := Default

	assert.Equal(t, Identifier{Kind: KindEmail, Value: "a@b.co"}, n.Split("A@B.co"))
	assert.Equal(t, Identifier{Kind: KindPhone, Value: "+380501234567"}, n.Split("0501234567"))
	assert.Equal(t, Identifier{Kind: KindTelegram, Value: "guest"}, n.Split("@Guest"))
	assert.Equal(t, KindNone, n.Split("John Smith").Kind)
	assert.Equal(t, KindNone, n.Split("   ").Kind)
}

func TestNormalizer_NormalizeAny_Idempotent(t *testing.T) {
	n := Default

	inputs := []string{
		"John.Doe@Mail.com",
		"050 123 45 67",
		"+1 (555) 123-4567 ext",
		"@SomeHandle",
		"@@Guest",
		"@@@x",
		"John Smith",
		"  @  ",
		"",
		"501234567",
	}
	for _, raw := range inputs {
		once := n.NormalizeAny(raw)
		assert.Equal(t, once, n.NormalizeAny(once), raw)
	}
	assert.Equal(t, "john smith", n.NormalizeAny("  John Smith "))
}

func TestNormalizer_SplitIsExclusive(t *testing.T) {
	n := Default

	tests := []struct {
		raw     string
		matched int
		want    Kind
	}{
		{"a@b.cc", 1, KindEmail},
		{"0501234567", 2, KindPhone},
		{"+380501234567", 2, KindPhone},
		{"handle", 1, KindTelegram},
		{"@@handle", 1, KindTelegram},
		{"x y", 0, KindNone},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var kinds []Kind
			if _, ok := n.Email(tt.raw); ok {
				kinds = append(kinds, KindEmail)
			}
			if _, ok := n.Phone(tt.raw); ok {
				kinds = append(kinds, KindPhone)
			}
			if _, ok := n.Telegram(tt.raw); ok {
				kinds = append(kinds, KindTelegram)
			}
			require.Len(t, kinds, tt.matched)

			id := n.Split(tt.raw)
			assert.Equal(t, tt.want, id.Kind)
			if len(kinds) == 0 {
				assert.Empty(t, id.Value)
				return
			}
			// The first matching normalizer in precedence order wins.
			assert.Equal(t, kinds[0], id.Kind)
			assert.NotEmpty(t, id.Value)
		})
	}
}

func TestNormalizer_Keys(t *testing.T) {
	n := Default

	keys := n.Keys("0501234567")
	assert.Contains(t, keys, "+380501234567")
	assert.Contains(t, keys, "0501234567")
	assert.Len(t, keys, 2)

	keys = n.Keys("Guest@Mail.com")
	assert.Equal(t, []string{"guest@mail.com"}, keys)

	assert.Equal(t, []string{}, n.Keys("   "))
}
