package listings

import (
	"context"
	"errors"
	"time"

	"rentcal/internal/domain/shared/money"
)

var (
	ErrListingNotFound = errors.New("listings: not found")
	ErrInvalidListing  = errors.New("listings: invalid listing parameters")
)

type ListingID string

type HostID string

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Listing carries the per-property booking policy the calendar engine
// evaluates against. The engine treats it as read-only.
type Listing struct {
	ID    ListingID
	Host  HostID
	Title string
	State Status

	// Booking policy.
	GapBetweenBookings int // clear days required between stays
	MinStayNights      int
	MaxStayNights      int
	MinBookingAdvance  int // days before check-in, lower bound
	MaxBookingAdvance  int // days before check-in, upper bound

	// Guests and pricing defaults.
	MaxGuests      int
	IncludedGuests int
	BasePrice      money.Money // nightly fallback when no price rule covers a date
	ExtraGuestFee  money.Money // per extra guest per night
	CleaningFee    money.Money // flat per stay

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
}

type CreateParams struct {
	ID                 ListingID
	Host               HostID
	Title              string
	GapBetweenBookings int
	MinStayNights      int
	MaxStayNights      int
	MinBookingAdvance  int
	MaxBookingAdvance  int
	MaxGuests          int
	IncludedGuests     int
	BasePrice          money.Money
	ExtraGuestFee      money.Money
	CleaningFee        money.Money
	Now                time.Time
}

func New(params CreateParams) (*Listing, error) {
	if params.ID == "" || params.Host == "" {
		return nil, ErrInvalidListing
	}
	if params.GapBetweenBookings < 0 {
		return nil, ErrInvalidListing
	}
	if params.MinStayNights < 1 {
		return nil, ErrInvalidListing
	}
	if params.MaxStayNights > 0 && params.MaxStayNights < params.MinStayNights {
		return nil, ErrInvalidListing
	}
	if params.MinBookingAdvance < 0 || params.MaxBookingAdvance < params.MinBookingAdvance {
		return nil, ErrInvalidListing
	}
	if params.MaxGuests < 1 || params.IncludedGuests < 0 || params.IncludedGuests > params.MaxGuests {
		return nil, ErrInvalidListing
	}
	if params.BasePrice.Currency == "" {
		return nil, ErrInvalidListing
	}
	now := params.Now.UTC()
	return &Listing{
		ID:                 params.ID,
		Host:               params.Host,
		Title:              params.Title,
		State:              StatusDraft,
		GapBetweenBookings: params.GapBetweenBookings,
		MinStayNights:      params.MinStayNights,
		MaxStayNights:      params.MaxStayNights,
		MinBookingAdvance:  params.MinBookingAdvance,
		MaxBookingAdvance:  params.MaxBookingAdvance,
		MaxGuests:          params.MaxGuests,
		IncludedGuests:     params.IncludedGuests,
		BasePrice:          params.BasePrice,
		ExtraGuestFee:      params.ExtraGuestFee,
		CleaningFee:        params.CleaningFee,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

func (l *Listing) Activate(now time.Time) {
	l.State = StatusActive
	l.UpdatedAt = now.UTC()
}

func (l *Listing) Deactivate(now time.Time) {
	l.State = StatusInactive
	l.UpdatedAt = now.UTC()
}
