package calendar

import (
	"fmt"
	"sort"
	"time"

	"rentcal/internal/domain/listings"
	"rentcal/internal/domain/shared/daterange"
)

const (
	maxWindowDays     = 366
	windowHorizonDays = 365
)

// RuleDays reports where a day-rule applies: enumerated dates for
// specific-date rules, weekday indexes (Monday=0) for weekly ones.
type RuleDays struct {
	Dates    []time.Time
	Weekdays []int
}

// Meta echoes the listing policy the calendar was built under.
type Meta struct {
	Start      time.Time
	End        time.Time
	WindowDays int
	MinStay    int
	MaxStay    int
	GapDays    int
}

// Result is the complete availability picture of one listing over a window.
// Its shape is fixed: every field is always present, empty sets included.
type Result struct {
	ListingID             listings.ListingID
	BlockedRanges         []DateSpan
	CheckinDates          []time.Time
	CheckoutDates         []time.Time
	GapDays               []time.Time
	CheckinBlockedByGap   []time.Time
	CheckinBlockedByRule  RuleDays
	CheckoutBlockedByRule RuleDays
	Meta                  Meta
}

// BuildInput is the batch of data one calendar build consumes.
type BuildInput struct {
	Listing    *listings.Listing
	Window     DateSpan
	Holds      []StayHold
	Closures   []ClosureRule
	CheckInOut []CheckInOutRule
	PriceRules []PriceRule
}

// ValidateWindow bounds calendar queries: start before end, at most a year
// long, and starting within a year of today either way.
func ValidateWindow(from, to, today time.Time) (DateSpan, error) {
	from, to, today = daterange.Midnight(from), daterange.Midnight(to), daterange.Midnight(today)
	if !from.Before(to) {
		return DateSpan{}, fmt.Errorf("%w: end must be after start", ErrInvalidDateRange)
	}
	if daterange.DaysBetween(from, to) > maxWindowDays {
		return DateSpan{}, fmt.Errorf("%w: window cannot exceed %d days", ErrInvalidDateRange, maxWindowDays)
	}
	if daterange.DaysBetween(from, today) > windowHorizonDays {
		return DateSpan{}, fmt.Errorf("%w: window starts more than a year in the past", ErrInvalidDateRange)
	}
	if daterange.DaysBetween(today, from) > windowHorizonDays {
		return DateSpan{}, fmt.Errorf("%w: window starts more than a year in the future", ErrInvalidDateRange)
	}
	return DateSpan{Start: from, End: to}, nil
}

// Build aggregates bookings, closures and day rules into a single calendar.
// It is deterministic over its input and performs no I/O.
func Build(in BuildInput) Result {
	window := in.Window
	minStay := WindowMinStay(in.Listing, window, in.PriceRules)
	res := Result{
		ListingID: in.Listing.ID,
		Meta: Meta{
			Start:      window.Start,
			End:        window.End,
			WindowDays: window.Days(),
			MinStay:    minStay,
			MaxStay:    in.Listing.MaxStayNights,
			GapDays:    in.Listing.GapBetweenBookings,
		},
	}

	occupied := make([]DateSpan, 0, len(in.Holds)+len(in.Closures))
	gapSource := make([]daterange.DateRange, 0, len(in.Holds)+len(in.Closures))
	for _, hold := range in.Holds {
		if span, ok := StayToSpan(hold.Range).Clip(window); ok {
			occupied = append(occupied, span)
		}
		if window.ContainsDate(hold.Range.CheckIn) {
			res.CheckinDates = append(res.CheckinDates, hold.Range.CheckIn)
		}
		if window.ContainsDate(hold.Range.CheckOut) {
			res.CheckoutDates = append(res.CheckoutDates, hold.Range.CheckOut)
		}
		gapSource = append(gapSource, hold.Range)
	}
	for _, closure := range in.Closures {
		if span, ok := closure.Span.Clip(window); ok {
			occupied = append(occupied, span)
		}
		// A closure occupies through its last day, so the gap sees its
		// implied checkout on the following day.
		gapSource = append(gapSource, daterange.DateRange{
			CheckIn:  closure.Span.Start,
			CheckOut: closure.Span.End.AddDate(0, 0, 1),
		})
	}
	res.BlockedRanges = Consolidate(occupied)
	sortDates(res.CheckinDates)
	sortDates(res.CheckoutDates)

	blocks := ComputeGapBlocks(gapSource, in.Listing.GapBetweenBookings, minStay, window)
	res.GapDays = blocks.TurnoverDays
	res.CheckinBlockedByGap = blocks.CheckinBlocked

	res.CheckinBlockedByRule = ruleDays(in.CheckInOut, NoCheckIn, window)
	res.CheckoutBlockedByRule = ruleDays(in.CheckInOut, NoCheckOut, window)
	return res
}

func ruleDays(rules []CheckInOutRule, kind RuleKind, window DateSpan) RuleDays {
	var out RuleDays
	seen := make(map[int]struct{})
	for _, rule := range rules {
		if rule.Kind != kind {
			continue
		}
		switch rule.Recur.Kind {
		case SpecificDate:
			if window.ContainsDate(rule.Recur.OnDate) {
				out.Dates = append(out.Dates, rule.Recur.OnDate)
			}
		case Weekly:
			if _, dup := seen[rule.Recur.Weekday]; !dup {
				seen[rule.Recur.Weekday] = struct{}{}
				out.Weekdays = append(out.Weekdays, rule.Recur.Weekday)
			}
		}
	}
	sortDates(out.Dates)
	sort.Ints(out.Weekdays)
	return out
}

func sortDates(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}
