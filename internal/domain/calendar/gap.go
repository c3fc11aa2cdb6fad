package calendar

import (
	"sort"
	"time"

	"rentcal/internal/domain/shared/daterange"
)

// GapBlocks are the days made unavailable around occupied periods by the
// turnover gap and the minimum-stay requirement.
//
// TurnoverDays cover the gap itself: [checkout, checkout+gap-1] after each
// stay and [checkin-gap, checkin-1] before it. CheckinBlocked extends the
// pre-checkin block so that a minimum-length stay cannot be squeezed in:
// together the days before a check-in always number gap + minNights - 1.
type GapBlocks struct {
	TurnoverDays   []time.Time
	CheckinBlocked []time.Time
}

// ComputeGapBlocks derives gap blocks for the occupied stays, clipped to
// window. Stays are half-open; closures must be normalized by the caller
// (checkout = closure end + 1 day).
func ComputeGapBlocks(occupied []daterange.DateRange, gapDays, minNights int, window DateSpan) GapBlocks {
	if gapDays <= 0 && minNights <= 1 {
		return GapBlocks{}
	}
	if gapDays < 0 {
		gapDays = 0
	}
	if minNights < 1 {
		minNights = 1
	}

	turnover := make(map[time.Time]struct{})
	blocked := make(map[time.Time]struct{})
	for _, stay := range occupied {
		if gapDays > 0 {
			collectDays(turnover, stay.CheckOut, stay.CheckOut.AddDate(0, 0, gapDays-1), window)
			collectDays(turnover, stay.CheckIn.AddDate(0, 0, -gapDays), stay.CheckIn.AddDate(0, 0, -1), window)
		}
		if minNights > 1 {
			start := stay.CheckIn.AddDate(0, 0, -(gapDays + minNights - 1))
			end := stay.CheckIn.AddDate(0, 0, -(gapDays + 1))
			collectDays(blocked, start, end, window)
		}
	}
	return GapBlocks{TurnoverDays: sortedDays(turnover), CheckinBlocked: sortedDays(blocked)}
}

func collectDays(into map[time.Time]struct{}, first, last time.Time, window DateSpan) {
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if window.ContainsDate(d) {
			into[d] = struct{}{}
		}
	}
}

func sortedDays(set map[time.Time]struct{}) []time.Time {
	if len(set) == 0 {
		return nil
	}
	out := make([]time.Time, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
