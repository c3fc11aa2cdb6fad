package daterange

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("daterange: checkout must be after checkin")

const Day = 24 * time.Hour

// DateRange represents a half-open stay interval [checkIn, checkOut).
// Both endpoints are normalized to UTC midnight.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Midnight(checkIn), CheckOut: Midnight(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckIn.IsZero() || dr.CheckOut.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	return DaysBetween(dr.CheckIn, dr.CheckOut)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

// SharesBoundary reports back-to-back stays: one checks out the day the
// other checks in. Such pairs never conflict (same-day turnover).
func (dr DateRange) SharesBoundary(other DateRange) bool {
	return dr.CheckOut.Equal(other.CheckIn) || other.CheckOut.Equal(dr.CheckIn)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Midnight(t)
	return !t.Before(dr.CheckIn) && t.Before(dr.CheckOut)
}

// Midnight truncates a timestamp to UTC midnight of the same calendar day.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC midnight timestamp for the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of days from a to b.
// Negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(Midnight(b).Sub(Midnight(a)) / Day)
}
