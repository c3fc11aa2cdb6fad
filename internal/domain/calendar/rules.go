package calendar

import (
	"context"
	"time"

	"rentcal/internal/domain/listings"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
)

// ClosureRule blocks an inclusive span of days. Manual closures carry an
// empty FeedTag; imported ones carry the identity of the feed that owns them.
type ClosureRule struct {
	ID              string
	ListingID       listings.ListingID
	Span            DateSpan
	Reason          string
	ExternalBooking bool
	FeedTag         string
	CreatedAt       time.Time
}

// BlocksStay reports whether the closure overlaps the candidate stay.
// A closure ending the day before check-in, or starting on the checkout
// day, does not block.
func (c ClosureRule) BlocksStay(stay daterange.DateRange) bool {
	return c.Span.Start.Before(stay.CheckOut) && !c.Span.End.Before(stay.CheckIn)
}

type RuleKind string

const (
	NoCheckIn  RuleKind = "no_checkin"
	NoCheckOut RuleKind = "no_checkout"
)

type RecurrenceKind string

const (
	SpecificDate RecurrenceKind = "specific_date"
	Weekly       RecurrenceKind = "weekly"
)

// Recurrence is either a single calendar date or a weekly repetition.
// Weekday uses Monday=0 .. Sunday=6.
type Recurrence struct {
	Kind    RecurrenceKind
	OnDate  time.Time
	Weekday int
}

// CheckInOutRule forbids starting or ending a stay on matching days.
type CheckInOutRule struct {
	ID        string
	ListingID listings.ListingID
	Kind      RuleKind
	Recur     Recurrence
	CreatedAt time.Time
}

func (r CheckInOutRule) AppliesTo(date time.Time) bool {
	date = daterange.Midnight(date)
	switch r.Recur.Kind {
	case SpecificDate:
		return r.Recur.OnDate.Equal(date)
	case Weekly:
		return WeekdayIndex(date) == r.Recur.Weekday
	default:
		return false
	}
}

// WeekdayIndex maps time.Weekday onto the Monday=0 .. Sunday=6 convention
// used by rule recurrences.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// PriceRule overrides the nightly price over an inclusive span, optionally
// overriding the listing minimum stay for stays fully inside the span.
type PriceRule struct {
	ID        string
	ListingID listings.ListingID
	Span      DateSpan
	Nightly   money.Money
	MinNights *int
	CreatedAt time.Time
}

// CoversStay reports whether the rule span contains the whole stay,
// checkout day included.
func (p PriceRule) CoversStay(stay daterange.DateRange) bool {
	return !p.Span.Start.After(stay.CheckIn) && !p.Span.End.Before(stay.CheckOut)
}

// CoversDate reports whether the rule prices the given night.
func (p PriceRule) CoversDate(date time.Time) bool {
	return p.Span.ContainsDate(date)
}

// RuleRepository loads and mutates the per-listing rule sets.
type RuleRepository interface {
	ClosuresInWindow(ctx context.Context, listingID listings.ListingID, window DateSpan) ([]ClosureRule, error)
	CheckInOutRules(ctx context.Context, listingID listings.ListingID) ([]CheckInOutRule, error)
	PriceRules(ctx context.Context, listingID listings.ListingID) ([]PriceRule, error)
	SaveClosure(ctx context.Context, rule ClosureRule) error
	// ReplaceImportedClosures atomically swaps every closure tagged with
	// feedTag for the given spans. A failed replace leaves the previous
	// set untouched.
	ReplaceImportedClosures(ctx context.Context, listingID listings.ListingID, feedTag string, closures []ClosureRule) error
}
