package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func mustRange(t *testing.T, in, out string) Range {
	t.Helper()
	r, err := New(day(in), day(out))
	require.NoError(t, err)
	return r
}

func TestNew_RejectsEmptyAndInverted(t *testing.T) {
	_, err := New(day("2025-10-20"), day("2025-10-20"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(day("2025-10-21"), day("2025-10-20"))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestRange_Overlaps(t *testing.T) {
	base := mustRange(t, "2025-10-20", "2025-10-23")

	tests := []struct {
		name string
		in   string
		out  string
		want bool
	}{
		{"back to back after", "2025-10-23", "2025-10-25", false},
		{"back to back before", "2025-10-18", "2025-10-20", false},
		{"shares last night", "2025-10-22", "2025-10-24", true},
		{"shares first night", "2025-10-19", "2025-10-21", true},
		{"inside", "2025-10-21", "2025-10-22", true},
		{"covers", "2025-10-01", "2025-11-01", true},
		{"disjoint", "2025-11-01", "2025-11-05", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := mustRange(t, tt.in, tt.out)
			assert.Equal(t, tt.want, base.Overlaps(other))
			assert.Equal(t, tt.want, other.Overlaps(base))
		})
	}
}

func TestRange_NightsAndDays(t *testing.T) {
	r := mustRange(t, "2025-10-30", "2025-11-02")

	assert.Equal(t, 3, r.Nights())
	days := r.Days()
	require.Len(t, days, 3)
	assert.Equal(t, "2025-10-30", Format(days[0]))
	assert.Equal(t, "2025-11-01", Format(days[2]))

	assert.True(t, r.Contains(day("2025-10-30")))
	assert.False(t, r.Contains(day("2025-11-02")))
}

func TestStartOfDay_StripsClock(t *testing.T) {
	kyiv := time.FixedZone("EEST", 3*3600)
	late := time.Date(2025, 10, 20, 23, 30, 0, 0, kyiv)

	assert.Equal(t, day("2025-10-20"), StartOfDay(late))
	assert.Equal(t, day("2025-10-20"), Today(late, kyiv))
	assert.Equal(t, day("2025-10-20"), Today(late, time.UTC))
}

func TestIsFree(t *testing.T) {
	busy := []Range{mustRange(t, "2025-10-20", "2025-10-23")}

	assert.True(t, IsFree(mustRange(t, "2025-10-23", "2025-10-25"), busy))
	assert.False(t, IsFree(mustRange(t, "2025-10-22", "2025-10-24"), busy))
	assert.True(t, IsFree(mustRange(t, "2025-10-22", "2025-10-24"), nil))
}
