package calendar

import (
	"fmt"
	"time"

	"rentcal/internal/domain/listings"
	"rentcal/internal/domain/shared/daterange"
)

// Decision is the outcome of an availability check. A stay that cannot be
// booked is a normal decision with a human-readable reason, not an error.
type Decision struct {
	OK     bool
	Reason string
}

func available() Decision {
	return Decision{OK: true, Reason: "available"}
}

func unavailable(reason string) Decision {
	return Decision{OK: false, Reason: reason}
}

// StayHold is an active booking seen from the engine: just its dates and an
// identity the caller may exclude (its own booking during a modification).
type StayHold struct {
	BookingID string
	Range     daterange.DateRange
}

// EvaluateInput carries everything a single availability decision needs,
// pre-fetched by the caller in one batch.
type EvaluateInput struct {
	Listing          *listings.Listing
	Stay             daterange.DateRange
	Today            time.Time
	ExcludeBookingID string
	Holds            []StayHold
	Closures         []ClosureRule
	CheckInOut       []CheckInOutRule
	PriceRules       []PriceRule
}

// Evaluate runs the ordered rule chain and stops at the first failure:
// date validity, advance window, closures, booking conflicts, turnover gap,
// minimum and maximum stay, then check-in/check-out day rules.
func Evaluate(in EvaluateInput) Decision {
	stay := in.Stay
	today := daterange.Midnight(in.Today)

	if err := stay.Validate(); err != nil {
		return unavailable("check-out must be after check-in")
	}
	if stay.CheckIn.Before(today) {
		return unavailable("check-in date cannot be in the past")
	}

	advance := daterange.DaysBetween(today, stay.CheckIn)
	if advance < in.Listing.MinBookingAdvance {
		return unavailable(fmt.Sprintf("check-in must be at least %d days in advance", in.Listing.MinBookingAdvance))
	}
	if advance > in.Listing.MaxBookingAdvance {
		return unavailable(fmt.Sprintf("check-in cannot be more than %d days in advance", in.Listing.MaxBookingAdvance))
	}

	for _, closure := range in.Closures {
		if closure.BlocksStay(stay) {
			if closure.Reason != "" {
				return unavailable(fmt.Sprintf("listing is closed during these dates: %s", closure.Reason))
			}
			return unavailable("listing is closed during these dates")
		}
	}

	gap := in.Listing.GapBetweenBookings
	for _, hold := range in.Holds {
		if in.ExcludeBookingID != "" && hold.BookingID == in.ExcludeBookingID {
			continue
		}
		if stay.Overlaps(hold.Range) && !stay.SharesBoundary(hold.Range) {
			return unavailable("dates conflict with an existing booking")
		}
	}
	if gap > 0 {
		for _, hold := range in.Holds {
			if in.ExcludeBookingID != "" && hold.BookingID == in.ExcludeBookingID {
				continue
			}
			after := daterange.DaysBetween(hold.Range.CheckOut, stay.CheckIn)
			if after >= 0 && after < gap {
				return unavailable(fmt.Sprintf("requires %d clear days between bookings", gap))
			}
			before := daterange.DaysBetween(stay.CheckOut, hold.Range.CheckIn)
			if before >= 0 && before < gap {
				return unavailable(fmt.Sprintf("requires %d clear days between bookings", gap))
			}
		}
	}

	nights := stay.Nights()
	minStay := EffectiveMinStay(in.Listing, stay, in.PriceRules)
	if nights < minStay {
		return unavailable(fmt.Sprintf("minimum stay is %d nights", minStay))
	}
	if in.Listing.MaxStayNights > 0 && nights > in.Listing.MaxStayNights {
		return unavailable(fmt.Sprintf("maximum stay is %d nights", in.Listing.MaxStayNights))
	}

	for _, rule := range in.CheckInOut {
		switch rule.Kind {
		case NoCheckIn:
			if rule.AppliesTo(stay.CheckIn) {
				return unavailable("check-in is not allowed on this date")
			}
		case NoCheckOut:
			if rule.AppliesTo(stay.CheckOut) {
				return unavailable("check-out is not allowed on this date")
			}
		}
	}

	return available()
}

// EffectiveMinStay is the smallest minimum-stay override among price rules
// fully covering the stay. Without a covering override the listing default
// applies.
func EffectiveMinStay(listing *listings.Listing, stay daterange.DateRange, rules []PriceRule) int {
	min := 0
	for _, rule := range rules {
		if rule.MinNights == nil || !rule.CoversStay(stay) {
			continue
		}
		if min == 0 || *rule.MinNights < min {
			min = *rule.MinNights
		}
	}
	return floorMinStay(listing, min)
}

// WindowMinStay is the minimum stay in effect over a calendar window: the
// smallest override among price rules touching the window, else the listing
// default. Calendar builds size their gap blocks from this value.
func WindowMinStay(listing *listings.Listing, window DateSpan, rules []PriceRule) int {
	min := 0
	for _, rule := range rules {
		if rule.MinNights == nil {
			continue
		}
		if _, ok := rule.Span.Clip(window); !ok {
			continue
		}
		if min == 0 || *rule.MinNights < min {
			min = *rule.MinNights
		}
	}
	return floorMinStay(listing, min)
}

func floorMinStay(listing *listings.Listing, min int) int {
	if min == 0 {
		min = listing.MinStayNights
	}
	if min < 1 {
		min = 1
	}
	return min
}
