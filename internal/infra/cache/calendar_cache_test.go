package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/domain/calendar"
)

func TestGetMissesUnknownKey(t *testing.T) {
	c := NewCalendarCache(time.Minute)

	_, ok := c.Get("lst-1|2026-06-01|2026-06-30")
	assert.False(t, ok)
}

func TestSetThenGet(t *testing.T) {
	c := NewCalendarCache(time.Minute)
	res := calendar.Result{ListingID: "lst-1", Meta: calendar.Meta{WindowDays: 30}}

	c.Set("lst-1|2026-06-01|2026-06-30", res)

	got, ok := c.Get("lst-1|2026-06-01|2026-06-30")
	require.True(t, ok)
	assert.Equal(t, res.Meta, got.Meta)
}

func TestEntriesExpire(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	c := NewCalendarCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("lst-1|2026-06-01|2026-06-30", calendar.Result{ListingID: "lst-1"})

	now = now.Add(59 * time.Second)
	_, ok := c.Get("lst-1|2026-06-01|2026-06-30")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = c.Get("lst-1|2026-06-01|2026-06-30")
	assert.False(t, ok)
}

func TestDeleteListingEvictsEveryWindow(t *testing.T) {
	c := NewCalendarCache(time.Minute)
	c.Set("lst-1|2026-06-01|2026-06-30", calendar.Result{ListingID: "lst-1"})
	c.Set("lst-1|2026-07-01|2026-07-31", calendar.Result{ListingID: "lst-1"})
	c.Set("lst-2|2026-06-01|2026-06-30", calendar.Result{ListingID: "lst-2"})

	require.NoError(t, c.DeleteListing("lst-1"))

	_, ok := c.Get("lst-1|2026-06-01|2026-06-30")
	assert.False(t, ok)
	_, ok = c.Get("lst-1|2026-07-01|2026-07-31")
	assert.False(t, ok)
	_, ok = c.Get("lst-2|2026-06-01|2026-06-30")
	assert.True(t, ok, "other listings keep their entries")
	assert.Equal(t, 1, c.Len())
}
