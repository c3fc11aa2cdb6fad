package dto

import (
	"time"

	"rentcal/internal/domain/calendar"
)

const dateLayout = "2006-01-02"

type DateSpan struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type RuleDays struct {
	Dates    []string `json:"dates"`
	Weekdays []int    `json:"weekdays"`
}

type CalendarMeta struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	WindowDays int    `json:"window_days"`
	MinStay    int    `json:"min_stay"`
	MaxStay    int    `json:"max_stay"`
	GapDays    int    `json:"gap_days"`
}

// Calendar is the wire form of a built listing calendar. Every field is
// always present so clients never branch on shape.
type Calendar struct {
	ListingID             string       `json:"listing_id"`
	BlockedRanges         []DateSpan   `json:"blocked_ranges"`
	CheckinDates          []string     `json:"checkin_dates"`
	CheckoutDates         []string     `json:"checkout_dates"`
	GapDays               []string     `json:"gap_days"`
	CheckinBlockedByGap   []string     `json:"checkin_blocked_by_gap"`
	CheckinBlockedByRule  RuleDays     `json:"checkin_blocked_by_rule"`
	CheckoutBlockedByRule RuleDays     `json:"checkout_blocked_by_rule"`
	Meta                  CalendarMeta `json:"meta"`
}

func NewCalendar(res calendar.Result) Calendar {
	return Calendar{
		ListingID:             string(res.ListingID),
		BlockedRanges:         spans(res.BlockedRanges),
		CheckinDates:          dates(res.CheckinDates),
		CheckoutDates:         dates(res.CheckoutDates),
		GapDays:               dates(res.GapDays),
		CheckinBlockedByGap:   dates(res.CheckinBlockedByGap),
		CheckinBlockedByRule:  ruleDays(res.CheckinBlockedByRule),
		CheckoutBlockedByRule: ruleDays(res.CheckoutBlockedByRule),
		Meta: CalendarMeta{
			Start:      res.Meta.Start.Format(dateLayout),
			End:        res.Meta.End.Format(dateLayout),
			WindowDays: res.Meta.WindowDays,
			MinStay:    res.Meta.MinStay,
			MaxStay:    res.Meta.MaxStay,
			GapDays:    res.Meta.GapDays,
		},
	}
}

// CalendarPrices is the per-day price list of one listing over a window.
type CalendarPrices struct {
	ListingID string       `json:"listing_id"`
	Currency  string       `json:"currency"`
	Prices    []NightPrice `json:"prices"`
}

func NewCalendarPrices(listingID string, prices []calendar.NightPrice) CalendarPrices {
	out := CalendarPrices{ListingID: listingID, Prices: make([]NightPrice, 0, len(prices))}
	for _, p := range prices {
		out.Currency = p.Price.Currency
		out.Prices = append(out.Prices, NightPrice{Date: p.Date.Format(dateLayout), Price: p.Price.Decimal(), Custom: p.Custom})
	}
	return out
}

type Availability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason"`
}

func NewAvailability(d calendar.Decision) Availability {
	return Availability{Available: d.OK, Reason: d.Reason}
}

func spans(in []calendar.DateSpan) []DateSpan {
	out := make([]DateSpan, 0, len(in))
	for _, s := range in {
		out = append(out, DateSpan{Start: s.Start.Format(dateLayout), End: s.End.Format(dateLayout)})
	}
	return out
}

func dates(in []time.Time) []string {
	out := make([]string, 0, len(in))
	for _, d := range in {
		out = append(out, d.Format(dateLayout))
	}
	return out
}

func ruleDays(in calendar.RuleDays) RuleDays {
	out := RuleDays{Dates: dates(in.Dates), Weekdays: in.Weekdays}
	if out.Weekdays == nil {
		out.Weekdays = []int{}
	}
	return out
}
