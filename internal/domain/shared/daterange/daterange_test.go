package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRange(t *testing.T, ci, co time.Time) DateRange {
	t.Helper()
	dr, err := New(ci, co)
	require.NoError(t, err)
	return dr
}

func TestNewNormalizesToMidnight(t *testing.T) {
	dr, err := New(
		time.Date(2026, time.June, 10, 15, 30, 0, 0, time.UTC),
		time.Date(2026, time.June, 14, 9, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.Equal(t, Date(2026, time.June, 10), dr.CheckIn)
	assert.Equal(t, Date(2026, time.June, 14), dr.CheckOut)
	assert.Equal(t, 4, dr.Nights())
}

func TestNewRejectsInvertedRange(t *testing.T) {
	_, err := New(Date(2026, time.June, 14), Date(2026, time.June, 10))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(Date(2026, time.June, 10), Date(2026, time.June, 10))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestOverlaps(t *testing.T) {
	a := mustRange(t, Date(2026, time.June, 10), Date(2026, time.June, 14))

	assert.True(t, a.Overlaps(mustRange(t, Date(2026, time.June, 12), Date(2026, time.June, 16))))
	assert.False(t, a.Overlaps(mustRange(t, Date(2026, time.June, 14), Date(2026, time.June, 18))),
		"touching at the boundary is not an overlap")
	assert.False(t, a.Overlaps(mustRange(t, Date(2026, time.June, 1), Date(2026, time.June, 10))))
}

func TestSharesBoundary(t *testing.T) {
	a := mustRange(t, Date(2026, time.June, 10), Date(2026, time.June, 14))

	assert.True(t, a.SharesBoundary(mustRange(t, Date(2026, time.June, 14), Date(2026, time.June, 18))))
	assert.True(t, a.SharesBoundary(mustRange(t, Date(2026, time.June, 5), Date(2026, time.June, 10))))
	assert.False(t, a.SharesBoundary(mustRange(t, Date(2026, time.June, 15), Date(2026, time.June, 18))))
}

func TestContainsDate(t *testing.T) {
	a := mustRange(t, Date(2026, time.June, 10), Date(2026, time.June, 14))

	assert.True(t, a.ContainsDate(Date(2026, time.June, 10)))
	assert.True(t, a.ContainsDate(Date(2026, time.June, 13)))
	assert.False(t, a.ContainsDate(Date(2026, time.June, 14)), "checkout day is exclusive")
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 5, DaysBetween(Date(2026, time.June, 10), Date(2026, time.June, 15)))
	assert.Equal(t, -5, DaysBetween(Date(2026, time.June, 15), Date(2026, time.June, 10)))
	assert.Equal(t, 0, DaysBetween(Date(2026, time.June, 10), Date(2026, time.June, 10)))
}
