package calendar

import (
	"fmt"
	"sort"
	"time"

	"rentcal/internal/domain/listings"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
)

// NightPrice is the resolved price of a single night. Custom marks prices
// coming from a rule rather than the listing base price.
type NightPrice struct {
	Date   time.Time
	Price  money.Money
	Custom bool
}

// Quote is a full price breakdown for a stay.
type Quote struct {
	CheckIn       time.Time
	CheckOut      time.Time
	Nights        int
	Guests        int
	PerNight      []NightPrice
	Subtotal      money.Money
	ExtraGuestFee money.Money
	CleaningFee   money.Money
	Total         money.Money
}

// ResolvePrice prices a stay night by night. Each night takes the covering
// price rule with the narrowest span; ties break on the earlier start.
// Nights no rule covers fall back to the base price.
func ResolvePrice(listing *listings.Listing, stay daterange.DateRange, guests int, rules []PriceRule) (Quote, error) {
	if err := stay.Validate(); err != nil {
		return Quote{}, fmt.Errorf("%w: check-out must be after check-in", ErrInvalidRequest)
	}
	if guests < 1 {
		return Quote{}, fmt.Errorf("%w: at least one guest required", ErrInvalidRequest)
	}
	if guests > listing.MaxGuests {
		return Quote{}, fmt.Errorf("%w: listing sleeps at most %d guests", ErrInvalidRequest, listing.MaxGuests)
	}

	ordered := orderByPrecedence(rules)
	nights := stay.Nights()
	quote := Quote{
		CheckIn:     stay.CheckIn,
		CheckOut:    stay.CheckOut,
		Nights:      nights,
		Guests:      guests,
		PerNight:    make([]NightPrice, 0, nights),
		Subtotal:    money.Money{Currency: listing.BasePrice.Currency},
		CleaningFee: listing.CleaningFee,
	}

	for night := stay.CheckIn; night.Before(stay.CheckOut); night = night.AddDate(0, 0, 1) {
		price := nightlyPrice(listing, night, ordered)
		subtotal, err := quote.Subtotal.Add(price.Price)
		if err != nil {
			return Quote{}, fmt.Errorf("price rule currency: %w", err)
		}
		quote.Subtotal = subtotal
		quote.PerNight = append(quote.PerNight, price)
	}

	quote.ExtraGuestFee = money.Money{Currency: listing.BasePrice.Currency}
	if extra := guests - listing.IncludedGuests; extra > 0 && !listing.ExtraGuestFee.IsZero() {
		quote.ExtraGuestFee = listing.ExtraGuestFee.Multiply(int64(extra) * int64(nights))
	}

	total := quote.Subtotal
	var err error
	if !quote.ExtraGuestFee.IsZero() {
		if total, err = total.Add(quote.ExtraGuestFee); err != nil {
			return Quote{}, fmt.Errorf("extra guest fee currency: %w", err)
		}
	}
	if !quote.CleaningFee.IsZero() {
		if total, err = total.Add(quote.CleaningFee); err != nil {
			return Quote{}, fmt.Errorf("cleaning fee currency: %w", err)
		}
	}
	quote.Total = total
	return quote, nil
}

// NightlyPrices resolves the price of every day in the window, for calendar
// display.
func NightlyPrices(listing *listings.Listing, window DateSpan, rules []PriceRule) []NightPrice {
	ordered := orderByPrecedence(rules)
	out := make([]NightPrice, 0, window.Days())
	for d := window.Start; !d.After(window.End); d = d.AddDate(0, 0, 1) {
		out = append(out, nightlyPrice(listing, d, ordered))
	}
	return out
}

func nightlyPrice(listing *listings.Listing, night time.Time, ordered []PriceRule) NightPrice {
	for _, rule := range ordered {
		if rule.CoversDate(night) {
			return NightPrice{Date: night, Price: rule.Nightly, Custom: true}
		}
	}
	return NightPrice{Date: night, Price: listing.BasePrice}
}

func orderByPrecedence(rules []PriceRule) []PriceRule {
	ordered := make([]PriceRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := ordered[i].Span.Days(), ordered[j].Span.Days()
		if di != dj {
			return di < dj
		}
		if !ordered[i].Span.Start.Equal(ordered[j].Span.Start) {
			return ordered[i].Span.Start.Before(ordered[j].Span.Start)
		}
		return ordered[i].Span.End.After(ordered[j].Span.End)
	})
	return ordered
}
