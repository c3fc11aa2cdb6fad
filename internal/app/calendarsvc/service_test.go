package calendarsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/domain/booking"
	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/listings"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
)

type listingStore struct {
	listing *listings.Listing
	err     error
	calls   int
}

func (s *listingStore) ByID(ctx context.Context, id listings.ListingID) (*listings.Listing, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.listing == nil || s.listing.ID != id {
		return nil, listings.ErrListingNotFound
	}
	return s.listing, nil
}

func (s *listingStore) Save(ctx context.Context, listing *listings.Listing) error {
	s.listing = listing
	return nil
}

type bookingStore struct {
	items []*booking.Booking
	err   error
}

func (s *bookingStore) ByID(ctx context.Context, id booking.BookingID) (*booking.Booking, error) {
	return nil, booking.ErrNotFound
}

func (s *bookingStore) Save(ctx context.Context, b *booking.Booking) error { return nil }

func (s *bookingStore) ListActive(ctx context.Context, listingID listings.ListingID, window daterange.DateRange) ([]*booking.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

type ruleStore struct {
	priceRules []calendar.PriceRule
	err        error
}

func (s *ruleStore) ClosuresInWindow(ctx context.Context, listingID listings.ListingID, window calendar.DateSpan) ([]calendar.ClosureRule, error) {
	return nil, s.err
}

func (s *ruleStore) CheckInOutRules(ctx context.Context, listingID listings.ListingID) ([]calendar.CheckInOutRule, error) {
	return nil, s.err
}

func (s *ruleStore) PriceRules(ctx context.Context, listingID listings.ListingID) ([]calendar.PriceRule, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.priceRules, nil
}

func (s *ruleStore) SaveClosure(ctx context.Context, rule calendar.ClosureRule) error { return nil }

func (s *ruleStore) SaveCheckInOutRule(ctx context.Context, rule calendar.CheckInOutRule) error {
	return nil
}

func (s *ruleStore) SavePriceRule(ctx context.Context, rule calendar.PriceRule) error { return nil }

func (s *ruleStore) ReplaceImportedClosures(ctx context.Context, listingID listings.ListingID, feedTag string, rules []calendar.ClosureRule) error {
	return nil
}

type spyCache struct {
	store     map[string]calendar.Result
	deleteErr error
	deleted   []string
}

func newSpyCache() *spyCache {
	return &spyCache{store: make(map[string]calendar.Result)}
}

func (c *spyCache) Get(key string) (calendar.Result, bool) {
	res, ok := c.store[key]
	return res, ok
}

func (c *spyCache) Set(key string, res calendar.Result) { c.store[key] = res }

func (c *spyCache) DeleteListing(listingID string) error {
	c.deleted = append(c.deleted, listingID)
	return c.deleteErr
}

func fixedNow() time.Time {
	return daterange.Date(2026, time.June, 1)
}

func serviceListing() *listings.Listing {
	usd := func(cents int64) money.Money { return money.Money{Amount: cents, Currency: "USD"} }
	return &listings.Listing{
		ID:                 "lst-1",
		Host:               "host-1",
		State:              listings.StatusActive,
		GapBetweenBookings: 1,
		MinStayNights:      2,
		MaxStayNights:      28,
		MaxBookingAdvance:  365,
		MaxGuests:          4,
		IncludedGuests:     2,
		BasePrice:          usd(10000),
		ExtraGuestFee:      usd(1500),
		CleaningFee:        usd(5000),
	}
}

func newService(ls *listingStore, bs *bookingStore, rs *ruleStore, c Cache) *Service {
	return &Service{
		Listings: ls,
		Bookings: bs,
		Rules:    rs,
		Cache:    c,
		Now:      fixedNow,
	}
}

func TestBuildCalendarCachesResult(t *testing.T) {
	ls := &listingStore{listing: serviceListing()}
	c := newSpyCache()
	svc := newService(ls, &bookingStore{}, &ruleStore{}, c)

	from := daterange.Date(2026, time.June, 1)
	to := daterange.Date(2026, time.June, 30)

	first, err := svc.BuildCalendar(context.Background(), "lst-1", from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, ls.calls)
	assert.Len(t, c.store, 1)

	second, err := svc.BuildCalendar(context.Background(), "lst-1", from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, ls.calls, "cache hit must skip the store")
	assert.Equal(t, first.Meta, second.Meta)
}

func TestBuildCalendarRejectsInvalidWindow(t *testing.T) {
	svc := newService(&listingStore{listing: serviceListing()}, &bookingStore{}, &ruleStore{}, nil)

	_, err := svc.BuildCalendar(context.Background(), "lst-1",
		daterange.Date(2026, time.June, 10), daterange.Date(2026, time.June, 10))
	assert.ErrorIs(t, err, calendar.ErrInvalidDateRange)
}

func TestBuildCalendarUnknownListing(t *testing.T) {
	svc := newService(&listingStore{}, &bookingStore{}, &ruleStore{}, nil)

	_, err := svc.BuildCalendar(context.Background(), "missing",
		daterange.Date(2026, time.June, 1), daterange.Date(2026, time.June, 30))
	assert.ErrorIs(t, err, calendar.ErrNotFound)
}

func TestBuildCalendarUpstreamFailure(t *testing.T) {
	svc := newService(
		&listingStore{listing: serviceListing()},
		&bookingStore{err: errors.New("connection reset")},
		&ruleStore{},
		nil,
	)

	_, err := svc.BuildCalendar(context.Background(), "lst-1",
		daterange.Date(2026, time.June, 1), daterange.Date(2026, time.June, 30))
	assert.ErrorIs(t, err, calendar.ErrUpstreamUnavailable)
}

func TestEvaluateInvalidRangeIsADecision(t *testing.T) {
	svc := newService(&listingStore{listing: serviceListing()}, &bookingStore{}, &ruleStore{}, nil)

	decision, err := svc.Evaluate(context.Background(), "lst-1",
		daterange.Date(2026, time.June, 10), daterange.Date(2026, time.June, 10), "")
	require.NoError(t, err)
	assert.False(t, decision.OK)
}

func TestEvaluateAvailableStay(t *testing.T) {
	svc := newService(&listingStore{listing: serviceListing()}, &bookingStore{}, &ruleStore{}, nil)

	decision, err := svc.Evaluate(context.Background(), "lst-1",
		daterange.Date(2026, time.June, 10), daterange.Date(2026, time.June, 14), "")
	require.NoError(t, err)
	assert.True(t, decision.OK)
}

func TestPricesResolveRuleOverrides(t *testing.T) {
	rs := &ruleStore{priceRules: []calendar.PriceRule{{
		ID:        "pr-1",
		ListingID: "lst-1",
		Span: calendar.DateSpan{
			Start: daterange.Date(2026, time.June, 10),
			End:   daterange.Date(2026, time.June, 12),
		},
		Nightly: money.Money{Amount: 15000, Currency: "USD"},
	}}}
	svc := newService(&listingStore{listing: serviceListing()}, &bookingStore{}, rs, nil)

	prices, err := svc.Prices(context.Background(), "lst-1",
		daterange.Date(2026, time.June, 9), daterange.Date(2026, time.June, 11))
	require.NoError(t, err)
	require.Len(t, prices, 3)
	assert.False(t, prices[0].Custom)
	assert.Equal(t, int64(10000), prices[0].Price.Amount)
	assert.True(t, prices[1].Custom)
	assert.Equal(t, int64(15000), prices[1].Price.Amount)
	assert.True(t, prices[2].Custom)
}

func TestPricesRejectInvalidWindow(t *testing.T) {
	svc := newService(&listingStore{listing: serviceListing()}, &bookingStore{}, &ruleStore{}, nil)

	_, err := svc.Prices(context.Background(), "lst-1",
		daterange.Date(2026, time.June, 10), daterange.Date(2026, time.June, 10))
	assert.ErrorIs(t, err, calendar.ErrInvalidDateRange)
}

func TestQuoteInvalidRange(t *testing.T) {
	svc := newService(&listingStore{listing: serviceListing()}, &bookingStore{}, &ruleStore{}, nil)

	_, err := svc.Quote(context.Background(), "lst-1",
		daterange.Date(2026, time.June, 10), daterange.Date(2026, time.June, 10), 2)
	assert.ErrorIs(t, err, calendar.ErrInvalidRequest)
}

func TestInvalidateListingSwallowsCacheError(t *testing.T) {
	c := newSpyCache()
	c.deleteErr = errors.New("evict failed")
	svc := newService(&listingStore{listing: serviceListing()}, &bookingStore{}, &ruleStore{}, c)

	svc.InvalidateListing("lst-1")
	assert.Equal(t, []string{"lst-1"}, c.deleted)
}

func TestCacheKeyListing(t *testing.T) {
	key := cacheKey("lst-1", calendar.DateSpan{
		Start: daterange.Date(2026, time.June, 1),
		End:   daterange.Date(2026, time.June, 30),
	})
	assert.Equal(t, "lst-1|2026-06-01|2026-06-30", key)
	assert.Equal(t, "lst-1", CacheKeyListing(key))
	assert.Equal(t, "bare", CacheKeyListing("bare"))
}
