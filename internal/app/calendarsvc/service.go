package calendarsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rentcal/internal/domain/booking"
	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/listings"
	"rentcal/internal/domain/shared/daterange"
)

// Cache stores built calendars keyed by listing and window. Implementations
// must be safe for concurrent use.
type Cache interface {
	Get(key string) (calendar.Result, bool)
	Set(key string, res calendar.Result)
	DeleteListing(listingID string) error
}

// Service orchestrates the calendar engine: it batches the store reads,
// runs the pure domain computation and fronts results with a short cache.
type Service struct {
	Listings listings.Repository
	Bookings booking.Repository
	Rules    calendar.RuleRepository
	Cache    Cache
	Logger   *slog.Logger
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// BuildCalendar assembles the availability picture of a listing over a
// window. Results are cached per (listing, window) until invalidated or
// expired.
func (s *Service) BuildCalendar(ctx context.Context, listingID listings.ListingID, from, to time.Time) (calendar.Result, error) {
	window, err := calendar.ValidateWindow(from, to, s.now())
	if err != nil {
		return calendar.Result{}, err
	}

	key := cacheKey(listingID, window)
	if s.Cache != nil {
		if cached, ok := s.Cache.Get(key); ok {
			return cached, nil
		}
	}

	listing, err := s.listing(ctx, listingID)
	if err != nil {
		return calendar.Result{}, err
	}

	data, err := s.loadEngineData(ctx, listing, window)
	if err != nil {
		return calendar.Result{}, err
	}

	result := calendar.Build(calendar.BuildInput{
		Listing:    listing,
		Window:     window,
		Holds:      data.holds,
		Closures:   data.closures,
		CheckInOut: data.checkInOut,
		PriceRules: data.priceRules,
	})
	if s.Cache != nil {
		s.Cache.Set(key, result)
	}
	return result, nil
}

// Evaluate answers whether a stay can be booked. An unavailable stay is a
// normal decision; only infrastructure failures surface as errors.
func (s *Service) Evaluate(ctx context.Context, listingID listings.ListingID, checkIn, checkOut time.Time, excludeBookingID string) (calendar.Decision, error) {
	stay, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return calendar.Decision{OK: false, Reason: "check-out must be after check-in"}, nil
	}

	listing, err := s.listing(ctx, listingID)
	if err != nil {
		return calendar.Decision{}, err
	}

	window := evaluationWindow(listing, stay)
	data, err := s.loadEngineData(ctx, listing, window)
	if err != nil {
		return calendar.Decision{}, err
	}

	return calendar.Evaluate(calendar.EvaluateInput{
		Listing:          listing,
		Stay:             stay,
		Today:            s.now(),
		ExcludeBookingID: excludeBookingID,
		Holds:            data.holds,
		Closures:         data.closures,
		CheckInOut:       data.checkInOut,
		PriceRules:       data.priceRules,
	}), nil
}

// Prices resolves the nightly price of every day in a window, for calendar
// display.
func (s *Service) Prices(ctx context.Context, listingID listings.ListingID, from, to time.Time) ([]calendar.NightPrice, error) {
	window, err := calendar.ValidateWindow(from, to, s.now())
	if err != nil {
		return nil, err
	}

	listing, err := s.listing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	rules, err := s.Rules.PriceRules(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("%w: load price rules: %v", calendar.ErrUpstreamUnavailable, err)
	}
	return calendar.NightlyPrices(listing, window, rules), nil
}

// Quote prices a stay without touching availability.
func (s *Service) Quote(ctx context.Context, listingID listings.ListingID, checkIn, checkOut time.Time, guests int) (calendar.Quote, error) {
	stay, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return calendar.Quote{}, fmt.Errorf("%w: check-out must be after check-in", calendar.ErrInvalidRequest)
	}

	listing, err := s.listing(ctx, listingID)
	if err != nil {
		return calendar.Quote{}, err
	}
	rules, err := s.Rules.PriceRules(ctx, listingID)
	if err != nil {
		return calendar.Quote{}, fmt.Errorf("%w: load price rules: %v", calendar.ErrUpstreamUnavailable, err)
	}
	return calendar.ResolvePrice(listing, stay, guests, rules)
}

// InvalidateListing drops every cached window of a listing. Eviction
// failures are logged and swallowed: a stale entry expires on its own.
func (s *Service) InvalidateListing(listingID listings.ListingID) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.DeleteListing(string(listingID)); err != nil && s.Logger != nil {
		s.Logger.Warn("calendar cache eviction failed", "listing_id", listingID, "error", err)
	}
}

func (s *Service) listing(ctx context.Context, id listings.ListingID) (*listings.Listing, error) {
	listing, err := s.Listings.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, listings.ErrListingNotFound) {
			return nil, fmt.Errorf("%w: listing %s", calendar.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: load listing: %v", calendar.ErrUpstreamUnavailable, err)
	}
	return listing, nil
}

type engineData struct {
	holds      []calendar.StayHold
	closures   []calendar.ClosureRule
	checkInOut []calendar.CheckInOutRule
	priceRules []calendar.PriceRule
}

// loadEngineData performs the single batched read the engine works from.
// Bookings are fetched with a lookback so stays just before the window
// still contribute gap days inside it. Price rules come first because a
// min-stay override widens the lookback.
func (s *Service) loadEngineData(ctx context.Context, listing *listings.Listing, window calendar.DateSpan) (engineData, error) {
	priceRules, err := s.Rules.PriceRules(ctx, listing.ID)
	if err != nil {
		return engineData{}, fmt.Errorf("%w: load price rules: %v", calendar.ErrUpstreamUnavailable, err)
	}

	minStay := calendar.WindowMinStay(listing, window, priceRules)
	if minStay < listing.MinStayNights {
		minStay = listing.MinStayNights
	}
	lookback := listing.GapBetweenBookings + minStay
	fetch := daterange.DateRange{
		CheckIn:  window.Start.AddDate(0, 0, -lookback),
		CheckOut: window.End.AddDate(0, 0, 1+listing.GapBetweenBookings),
	}

	bookings, err := s.Bookings.ListActive(ctx, listing.ID, fetch)
	if err != nil {
		return engineData{}, fmt.Errorf("%w: load bookings: %v", calendar.ErrUpstreamUnavailable, err)
	}
	holds := make([]calendar.StayHold, 0, len(bookings))
	for _, b := range bookings {
		holds = append(holds, calendar.StayHold{BookingID: string(b.ID), Range: b.Range})
	}

	closures, err := s.Rules.ClosuresInWindow(ctx, listing.ID, calendar.DateSpan{Start: fetch.CheckIn, End: fetch.CheckOut})
	if err != nil {
		return engineData{}, fmt.Errorf("%w: load closures: %v", calendar.ErrUpstreamUnavailable, err)
	}
	checkInOut, err := s.Rules.CheckInOutRules(ctx, listing.ID)
	if err != nil {
		return engineData{}, fmt.Errorf("%w: load check-in/out rules: %v", calendar.ErrUpstreamUnavailable, err)
	}

	return engineData{holds: holds, closures: closures, checkInOut: checkInOut, priceRules: priceRules}, nil
}

// evaluationWindow is the span of days whose state can affect one decision.
func evaluationWindow(listing *listings.Listing, stay daterange.DateRange) calendar.DateSpan {
	margin := listing.GapBetweenBookings + listing.MinStayNights
	return calendar.DateSpan{
		Start: stay.CheckIn.AddDate(0, 0, -margin),
		End:   stay.CheckOut.AddDate(0, 0, margin),
	}
}

func cacheKey(listingID listings.ListingID, window calendar.DateSpan) string {
	return string(listingID) + "|" + window.Start.Format("2006-01-02") + "|" + window.End.Format("2006-01-02")
}

// CacheKeyListing extracts the listing part of a cache key; used by caches
// that index entries per listing for coarse invalidation.
func CacheKeyListing(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == '|' {
			return key[:i]
		}
	}
	return key
}
