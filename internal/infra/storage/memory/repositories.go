package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"rentcal/internal/app/feedsync"
	"rentcal/internal/domain/booking"
	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/listings"
	"rentcal/internal/domain/shared/daterange"
)

// ErrDuplicateCheckIn mirrors the store-level uniqueness on
// (listing, check-in) for active bookings.
var ErrDuplicateCheckIn = errors.New("memory: active booking with same check-in exists")

// ListingRepository is an in-memory implementation for tests and dev runs.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[listings.ListingID]*listings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{items: make(map[listings.ListingID]*listings.Listing)}
}

func (r *ListingRepository) ByID(ctx context.Context, id listings.ListingID) (*listings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, listings.ErrListingNotFound
	}
	return listing, nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *listings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[listing.ID] = listing
	return nil
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[booking.BookingID]*booking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[booking.BookingID]*booking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id booking.BookingID) (*booking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return b, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.IsActive() {
		for _, other := range r.items {
			if other.ID == b.ID || other.ListingID != b.ListingID {
				continue
			}
			if other.IsActive() && other.Range.CheckIn.Equal(b.Range.CheckIn) {
				return ErrDuplicateCheckIn
			}
		}
	}
	b.Version++
	r.items[b.ID] = b
	return nil
}

func (r *BookingRepository) ListActive(ctx context.Context, listingID listings.ListingID, window daterange.DateRange) ([]*booking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*booking.Booking, 0)
	for _, b := range r.items {
		if b.ListingID != listingID || !b.IsActive() {
			continue
		}
		if !b.Range.Overlaps(window) {
			continue
		}
		matches = append(matches, b)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Range.CheckIn.Before(matches[j].Range.CheckIn)
	})
	return matches, nil
}

// RuleRepository keeps the per-listing rule sets in memory.
type RuleRepository struct {
	mu         sync.RWMutex
	closures   map[listings.ListingID][]calendar.ClosureRule
	checkInOut map[listings.ListingID][]calendar.CheckInOutRule
	priceRules map[listings.ListingID][]calendar.PriceRule
}

func NewRuleRepository() *RuleRepository {
	return &RuleRepository{
		closures:   make(map[listings.ListingID][]calendar.ClosureRule),
		checkInOut: make(map[listings.ListingID][]calendar.CheckInOutRule),
		priceRules: make(map[listings.ListingID][]calendar.PriceRule),
	}
}

func (r *RuleRepository) ClosuresInWindow(ctx context.Context, listingID listings.ListingID, window calendar.DateSpan) ([]calendar.ClosureRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []calendar.ClosureRule
	for _, closure := range r.closures[listingID] {
		if _, ok := closure.Span.Clip(window); ok {
			out = append(out, closure)
		}
	}
	return out, nil
}

func (r *RuleRepository) CheckInOutRules(ctx context.Context, listingID listings.ListingID) ([]calendar.CheckInOutRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]calendar.CheckInOutRule(nil), r.checkInOut[listingID]...), nil
}

func (r *RuleRepository) PriceRules(ctx context.Context, listingID listings.ListingID) ([]calendar.PriceRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]calendar.PriceRule(nil), r.priceRules[listingID]...), nil
}

func (r *RuleRepository) SaveClosure(ctx context.Context, rule calendar.ClosureRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closures[rule.ListingID] = append(r.closures[rule.ListingID], rule)
	return nil
}

func (r *RuleRepository) SaveCheckInOutRule(ctx context.Context, rule calendar.CheckInOutRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkInOut[rule.ListingID] = append(r.checkInOut[rule.ListingID], rule)
	return nil
}

func (r *RuleRepository) SavePriceRule(ctx context.Context, rule calendar.PriceRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.priceRules[rule.ListingID] = append(r.priceRules[rule.ListingID], rule)
	return nil
}

// ReplaceImportedClosures swaps the closures owned by feedTag in one step.
func (r *RuleRepository) ReplaceImportedClosures(ctx context.Context, listingID listings.ListingID, feedTag string, closures []calendar.ClosureRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := make([]calendar.ClosureRule, 0, len(r.closures[listingID])+len(closures))
	for _, closure := range r.closures[listingID] {
		if closure.FeedTag != feedTag {
			kept = append(kept, closure)
		}
	}
	kept = append(kept, closures...)
	r.closures[listingID] = kept
	return nil
}

var _ calendar.RuleRepository = (*RuleRepository)(nil)

// FeedRepository stores external feed records in memory.
type FeedRepository struct {
	mu    sync.RWMutex
	items map[string]*feedsync.Feed
}

func NewFeedRepository() *FeedRepository {
	return &FeedRepository{items: make(map[string]*feedsync.Feed)}
}

func (r *FeedRepository) ByID(ctx context.Context, id string) (*feedsync.Feed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	feed, ok := r.items[id]
	if !ok {
		return nil, feedsync.ErrFeedNotFound
	}
	return feed, nil
}

func (r *FeedRepository) ListActive(ctx context.Context) ([]*feedsync.Feed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*feedsync.Feed
	for _, feed := range r.items {
		if feed.Active {
			out = append(out, feed)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *FeedRepository) Save(ctx context.Context, feed *feedsync.Feed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[feed.ID] = feed
	return nil
}

var _ feedsync.FeedRepository = (*FeedRepository)(nil)
