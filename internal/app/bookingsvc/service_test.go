package bookingsvc_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/app/bookingsvc"
	"rentcal/internal/app/calendarsvc"
	"rentcal/internal/domain/booking"
	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/listings"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/events"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/infra/storage/memory"
)

type capturedEvents struct {
	names []string
}

func (c *capturedEvents) Publish(ctx context.Context, event events.DomainEvent) error {
	c.names = append(c.names, event.EventName())
	return nil
}

type fixture struct {
	svc       *bookingsvc.Service
	bookings  *memory.BookingRepository
	published *capturedEvents
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	usd := func(cents int64) money.Money { return money.Money{Amount: cents, Currency: "USD"} }
	listing, err := listings.New(listings.CreateParams{
		ID:                 "lst-1",
		Host:               "host-1",
		Title:              "City flat",
		GapBetweenBookings: 1,
		MinStayNights:      2,
		MaxStayNights:      28,
		MaxBookingAdvance:  365,
		MaxGuests:          4,
		IncludedGuests:     2,
		BasePrice:          usd(10000),
		ExtraGuestFee:      usd(1500),
		CleaningFee:        usd(5000),
		Now:                daterange.Date(2026, time.January, 1),
	})
	require.NoError(t, err)

	listingRepo := memory.NewListingRepository()
	require.NoError(t, listingRepo.Save(context.Background(), listing))

	bookingRepo := memory.NewBookingRepository()
	now := func() time.Time { return daterange.Date(2026, time.June, 1) }
	calendarSvc := &calendarsvc.Service{
		Listings: listingRepo,
		Bookings: bookingRepo,
		Rules:    memory.NewRuleRepository(),
		Now:      now,
	}
	published := &capturedEvents{}
	return fixture{
		svc: &bookingsvc.Service{
			Calendar:  calendarSvc,
			Bookings:  bookingRepo,
			Publisher: published,
			Now:       now,
		},
		bookings:  bookingRepo,
		published: published,
	}
}

func requestParams() bookingsvc.RequestParams {
	return bookingsvc.RequestParams{
		ListingID: "lst-1",
		GuestID:   "guest-1",
		CheckIn:   daterange.Date(2026, time.June, 10),
		CheckOut:  daterange.Date(2026, time.June, 14),
		Guests:    2,
	}
}

func TestRequestCreatesPendingBooking(t *testing.T) {
	fx := newFixture(t)

	b, err := fx.svc.Request(context.Background(), requestParams())
	require.NoError(t, err)

	assert.Equal(t, booking.StatusPending, b.Status)
	assert.Equal(t, 4, b.Quote.Nights)
	// 4 nights at base plus cleaning
	assert.Equal(t, int64(45000), b.Quote.Total.Amount)
	assert.Empty(t, b.PendingEvents(), "events drained after publishing")
	assert.Equal(t, []string{"booking.requested"}, fx.published.names)

	stored, err := fx.bookings.ByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, stored.ID)
}

func TestRequestUnavailableDates(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.Request(context.Background(), requestParams())
	require.NoError(t, err)

	params := requestParams()
	params.CheckIn = daterange.Date(2026, time.June, 12)
	params.CheckOut = daterange.Date(2026, time.June, 16)
	_, err = fx.svc.Request(context.Background(), params)
	require.ErrorIs(t, err, bookingsvc.ErrUnavailable)
	assert.Contains(t, err.Error(), "existing booking")
}

func TestRequestTooManyGuests(t *testing.T) {
	fx := newFixture(t)

	params := requestParams()
	params.Guests = 9
	_, err := fx.svc.Request(context.Background(), params)
	assert.ErrorIs(t, err, calendar.ErrInvalidRequest)
}

func TestConfirmThenCancel(t *testing.T) {
	fx := newFixture(t)

	b, err := fx.svc.Request(context.Background(), requestParams())
	require.NoError(t, err)

	confirmed, err := fx.svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, confirmed.Status)

	cancelled, err := fx.svc.Cancel(context.Background(), b.ID, "guest request")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, cancelled.Status)

	assert.Equal(t, []string{"booking.requested", "booking.confirmed", "booking.cancelled"}, fx.published.names)
}

func TestConfirmUnknownBooking(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.Confirm(context.Background(), "missing")
	assert.ErrorIs(t, err, calendar.ErrNotFound)
}

func TestConfirmTwiceIsInvalid(t *testing.T) {
	fx := newFixture(t)

	b, err := fx.svc.Request(context.Background(), requestParams())
	require.NoError(t, err)

	_, err = fx.svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)
	_, err = fx.svc.Confirm(context.Background(), b.ID)
	assert.ErrorIs(t, err, calendar.ErrInvalidRequest)
}

func TestCancelReleasesDates(t *testing.T) {
	fx := newFixture(t)

	b, err := fx.svc.Request(context.Background(), requestParams())
	require.NoError(t, err)
	_, err = fx.svc.Cancel(context.Background(), b.ID, "")
	require.NoError(t, err)

	again, err := fx.svc.Request(context.Background(), requestParams())
	require.NoError(t, err)
	assert.NotEqual(t, b.ID, again.ID)
}
