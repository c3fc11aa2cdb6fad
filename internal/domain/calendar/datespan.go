package calendar

import (
	"sort"
	"time"

	"rentcal/internal/domain/shared/daterange"
)

// DateSpan is an inclusive run of calendar days [Start, End].
// Endpoints are UTC midnight.
type DateSpan struct {
	Start time.Time
	End   time.Time
}

func NewDateSpan(start, end time.Time) (DateSpan, error) {
	s := DateSpan{Start: daterange.Midnight(start), End: daterange.Midnight(end)}
	if s.Start.IsZero() || s.End.Before(s.Start) {
		return DateSpan{}, ErrInvalidDateRange
	}
	return s, nil
}

// Days returns the number of calendar days the span covers, at least 1.
func (s DateSpan) Days() int {
	return daterange.DaysBetween(s.Start, s.End) + 1
}

func (s DateSpan) ContainsDate(t time.Time) bool {
	t = daterange.Midnight(t)
	return !t.Before(s.Start) && !t.After(s.End)
}

// Clip intersects the span with a window. ok is false when they are disjoint.
func (s DateSpan) Clip(window DateSpan) (DateSpan, bool) {
	start, end := s.Start, s.End
	if start.Before(window.Start) {
		start = window.Start
	}
	if end.After(window.End) {
		end = window.End
	}
	if end.Before(start) {
		return DateSpan{}, false
	}
	return DateSpan{Start: start, End: end}, true
}

// StayToSpan converts a half-open stay into the inclusive run of occupied
// nights: the checkout day itself is free.
func StayToSpan(dr daterange.DateRange) DateSpan {
	return DateSpan{Start: dr.CheckIn, End: dr.CheckOut.AddDate(0, 0, -1)}
}

// Consolidate merges overlapping and adjacent spans into the minimal sorted
// set. Spans whose neighbour starts the day after they end are joined.
func Consolidate(spans []DateSpan) []DateSpan {
	if len(spans) == 0 {
		return nil
	}
	sorted := make([]DateSpan, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].End.Before(sorted[j].End)
		}
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []DateSpan{sorted[0]}
	for _, next := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !next.Start.After(last.End.AddDate(0, 0, 1)) {
			if next.End.After(last.End) {
				last.End = next.End
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

// Split chunks spans longer than maxDays into consecutive pieces.
// maxDays < 1 returns the input unchanged.
func Split(spans []DateSpan, maxDays int) []DateSpan {
	if maxDays < 1 {
		return spans
	}
	var out []DateSpan
	for _, s := range spans {
		start := s.Start
		for s.End.Sub(start) >= time.Duration(maxDays)*daterange.Day {
			end := start.AddDate(0, 0, maxDays-1)
			out = append(out, DateSpan{Start: start, End: end})
			start = end.AddDate(0, 0, 1)
		}
		out = append(out, DateSpan{Start: start, End: s.End})
	}
	return out
}

// Gaps returns the free spans inside window not covered by the given spans.
// The input need not be consolidated.
func Gaps(spans []DateSpan, window DateSpan) []DateSpan {
	var clipped []DateSpan
	for _, s := range spans {
		if c, ok := s.Clip(window); ok {
			clipped = append(clipped, c)
		}
	}
	occupied := Consolidate(clipped)
	if len(occupied) == 0 {
		return []DateSpan{window}
	}

	var free []DateSpan
	cursor := window.Start
	for _, s := range occupied {
		if s.Start.After(cursor) {
			free = append(free, DateSpan{Start: cursor, End: s.Start.AddDate(0, 0, -1)})
		}
		cursor = s.End.AddDate(0, 0, 1)
	}
	if !cursor.After(window.End) {
		free = append(free, DateSpan{Start: cursor, End: window.End})
	}
	return free
}
