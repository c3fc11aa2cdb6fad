package bookingsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentcal/internal/app/calendarsvc"
	"rentcal/internal/domain/booking"
	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/listings"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/events"
)

// ErrUnavailable is returned when the requested dates fail the availability
// check; the wrapping message carries the engine's reason.
var ErrUnavailable = errors.New("bookingsvc: dates unavailable")

// EventPublisher pushes domain events to the broker. A nil publisher
// disables eventing.
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
}

type Service struct {
	Calendar  *calendarsvc.Service
	Bookings  booking.Repository
	Publisher EventPublisher
	Logger    *slog.Logger
	Now       func() time.Time
}

type RequestParams struct {
	ListingID listings.ListingID
	GuestID   string
	CheckIn   time.Time
	CheckOut  time.Time
	Guests    int
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Request evaluates, prices and stores a new pending booking. The store
// level uniqueness on (listing, check-in) narrows the race between the
// availability check and the insert.
func (s *Service) Request(ctx context.Context, params RequestParams) (*booking.Booking, error) {
	decision, err := s.Calendar.Evaluate(ctx, params.ListingID, params.CheckIn, params.CheckOut, "")
	if err != nil {
		return nil, err
	}
	if !decision.OK {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, decision.Reason)
	}

	quote, err := s.Calendar.Quote(ctx, params.ListingID, params.CheckIn, params.CheckOut, params.Guests)
	if err != nil {
		return nil, err
	}

	stay, err := daterange.New(params.CheckIn, params.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("%w: check-out must be after check-in", calendar.ErrInvalidRequest)
	}
	b, err := booking.New(booking.CreateParams{
		ID:        booking.BookingID(uuid.NewString()),
		ListingID: params.ListingID,
		GuestID:   params.GuestID,
		Range:     stay,
		Guests:    params.Guests,
		Quote:     quote,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", calendar.ErrInvalidRequest, err)
	}

	if err := s.Bookings.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("save booking: %w", err)
	}
	s.afterWrite(ctx, b)
	return b, nil
}

// Confirm moves a pending booking to confirmed.
func (s *Service) Confirm(ctx context.Context, id booking.BookingID) (*booking.Booking, error) {
	return s.transition(ctx, id, func(b *booking.Booking) error {
		return b.Confirm(s.now())
	})
}

// Cancel releases the booking's dates.
func (s *Service) Cancel(ctx context.Context, id booking.BookingID, reason string) (*booking.Booking, error) {
	return s.transition(ctx, id, func(b *booking.Booking) error {
		return b.Cancel(reason, s.now())
	})
}

func (s *Service) transition(ctx context.Context, id booking.BookingID, apply func(*booking.Booking) error) (*booking.Booking, error) {
	b, err := s.Bookings.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return nil, fmt.Errorf("%w: booking %s", calendar.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: load booking: %v", calendar.ErrUpstreamUnavailable, err)
	}
	if err := apply(b); err != nil {
		return nil, fmt.Errorf("%w: %v", calendar.ErrInvalidRequest, err)
	}
	if err := s.Bookings.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("save booking: %w", err)
	}
	s.afterWrite(ctx, b)
	return b, nil
}

// afterWrite runs the post-commit side effects: cache invalidation and
// event publication. Neither failure is returned to the caller.
func (s *Service) afterWrite(ctx context.Context, b *booking.Booking) {
	s.Calendar.InvalidateListing(b.ListingID)

	pending := b.PendingEvents()
	b.ClearEvents()
	if s.Publisher == nil {
		return
	}
	for _, event := range pending {
		if err := s.Publisher.Publish(ctx, event); err != nil && s.Logger != nil {
			s.Logger.Warn("event publish failed", "event", event.EventName(), "booking_id", b.ID, "error", err)
		}
	}
}
