package dto

import (
	"rentcal/internal/domain/booking"
	"rentcal/internal/domain/calendar"
)

type NightPrice struct {
	Date   string `json:"date"`
	Price  string `json:"price"`
	Custom bool   `json:"custom"`
}

type Quote struct {
	CheckIn       string       `json:"check_in"`
	CheckOut      string       `json:"check_out"`
	Nights        int          `json:"nights"`
	Guests        int          `json:"guests"`
	Currency      string       `json:"currency"`
	PerNight      []NightPrice `json:"per_night"`
	Subtotal      string       `json:"subtotal"`
	ExtraGuestFee string       `json:"extra_guest_fee"`
	CleaningFee   string       `json:"cleaning_fee"`
	Total         string       `json:"total"`
}

func NewQuote(q calendar.Quote) Quote {
	perNight := make([]NightPrice, 0, len(q.PerNight))
	for _, n := range q.PerNight {
		perNight = append(perNight, NightPrice{Date: n.Date.Format(dateLayout), Price: n.Price.Decimal(), Custom: n.Custom})
	}
	return Quote{
		CheckIn:       q.CheckIn.Format(dateLayout),
		CheckOut:      q.CheckOut.Format(dateLayout),
		Nights:        q.Nights,
		Guests:        q.Guests,
		Currency:      q.Total.Currency,
		PerNight:      perNight,
		Subtotal:      q.Subtotal.Decimal(),
		ExtraGuestFee: q.ExtraGuestFee.Decimal(),
		CleaningFee:   q.CleaningFee.Decimal(),
		Total:         q.Total.Decimal(),
	}
}

type Booking struct {
	ID        string `json:"id"`
	ListingID string `json:"listing_id"`
	GuestID   string `json:"guest_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Guests    int    `json:"guests"`
	Status    string `json:"status"`
	Quote     Quote  `json:"quote"`
}

func NewBooking(b *booking.Booking) Booking {
	return Booking{
		ID:        string(b.ID),
		ListingID: string(b.ListingID),
		GuestID:   b.GuestID,
		CheckIn:   b.Range.CheckIn.Format(dateLayout),
		CheckOut:  b.Range.CheckOut.Format(dateLayout),
		Guests:    b.Guests,
		Status:    string(b.Status),
		Quote:     NewQuote(b.Quote),
	}
}
