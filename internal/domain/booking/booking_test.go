package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/domain/shared/daterange"
)

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	dr, err := daterange.New(daterange.Date(2026, time.July, 10), daterange.Date(2026, time.July, 15))
	require.NoError(t, err)
	b, err := New(CreateParams{
		ID:        "bk-1",
		ListingID: "lst-1",
		GuestID:   "guest-1",
		Range:     dr,
		Guests:    2,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	return b
}

func TestNewBookingStartsPending(t *testing.T) {
	b := newTestBooking(t)
	assert.Equal(t, StatusPending, b.Status)
	assert.True(t, b.IsActive())

	events := b.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "booking.requested", events[0].EventName())
}

func TestNewBookingValidation(t *testing.T) {
	dr, err := daterange.New(daterange.Date(2026, time.July, 10), daterange.Date(2026, time.July, 15))
	require.NoError(t, err)

	_, err = New(CreateParams{ID: "bk", ListingID: "lst", GuestID: "g", Range: dr, Guests: 0})
	assert.ErrorIs(t, err, ErrInvalidGuests)

	_, err = New(CreateParams{ID: "bk", ListingID: "lst", GuestID: "", Range: dr, Guests: 1})
	assert.Error(t, err)
}

func TestConfirmThenComplete(t *testing.T) {
	b := newTestBooking(t)
	now := time.Now()

	require.NoError(t, b.Confirm(now))
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.True(t, b.IsActive())

	require.NoError(t, b.Complete(now))
	assert.Equal(t, StatusCompleted, b.Status)
	assert.False(t, b.IsActive())
}

func TestCancelFromPendingAndConfirmed(t *testing.T) {
	b := newTestBooking(t)
	require.NoError(t, b.Cancel("guest changed plans", time.Now()))
	assert.Equal(t, StatusCancelled, b.Status)
	assert.False(t, b.IsActive())

	b = newTestBooking(t)
	require.NoError(t, b.Confirm(time.Now()))
	require.NoError(t, b.Cancel("host closed dates", time.Now()))
	assert.Equal(t, StatusCancelled, b.Status)
}

func TestInvalidTransitions(t *testing.T) {
	b := newTestBooking(t)
	require.NoError(t, b.Cancel("", time.Now()))

	assert.ErrorIs(t, b.Confirm(time.Now()), ErrInvalidState)
	assert.ErrorIs(t, b.Cancel("", time.Now()), ErrInvalidState)
	assert.ErrorIs(t, b.Complete(time.Now()), ErrInvalidState)
	assert.ErrorIs(t, b.MarkNoShow(time.Now()), ErrInvalidState)
}

func TestMarkNoShowRequiresConfirmed(t *testing.T) {
	b := newTestBooking(t)
	assert.ErrorIs(t, b.MarkNoShow(time.Now()), ErrInvalidState)

	require.NoError(t, b.Confirm(time.Now()))
	require.NoError(t, b.MarkNoShow(time.Now()))
	assert.Equal(t, StatusNoShow, b.Status)
	assert.False(t, b.IsActive())
}
