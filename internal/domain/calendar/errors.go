package calendar

import "errors"

var (
	// ErrInvalidDateRange flags a malformed or out-of-bounds query window.
	ErrInvalidDateRange = errors.New("calendar: invalid date range")
	// ErrInvalidRequest flags malformed evaluation or quote parameters.
	ErrInvalidRequest = errors.New("calendar: invalid request")
	// ErrNotFound flags a missing listing, booking or feed.
	ErrNotFound = errors.New("calendar: not found")
	// ErrUpstreamUnavailable flags a failed read from the backing store
	// or an unreachable external feed.
	ErrUpstreamUnavailable = errors.New("calendar: upstream unavailable")
)
