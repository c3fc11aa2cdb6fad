package calendar

import (
	"time"

	"rentcal/internal/domain/listings"
)

// ClosuresImported is raised after a feed sync replaces a listing's
// imported closures.
type ClosuresImported struct {
	ListingID listings.ListingID
	FeedID    string
	Count     int
	At        time.Time
}

func (e ClosuresImported) EventName() string     { return "calendar.closures_imported" }
func (e ClosuresImported) AggregateID() string   { return string(e.ListingID) }
func (e ClosuresImported) OccurredAt() time.Time { return e.At }
