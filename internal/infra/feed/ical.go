package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rentcal/internal/app/feedsync"
	"rentcal/internal/domain/shared/daterange"
)

const maxFeedBytes = 5 << 20

// bookedSummaryWords mark events that hold real reservations even when the
// feed omits a STATUS property.
var bookedSummaryWords = []string{"reserved", "booked", "occupied", "blocked", "rental", "not available"}

// Client downloads and parses iCalendar availability feeds. Parsing is
// deliberately small: only VEVENT date ranges matter for closures.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Logger    *slog.Logger
	Now       func() time.Time
}

func NewClient(timeout time.Duration, userAgent string, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		Logger:    logger,
	}
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Download fetches the feed and returns its blocked periods. Events far in
// the past or future are dropped.
func (c *Client) Download(ctx context.Context, url string) ([]feedsync.ImportedEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "text/calendar, text/plain, */*")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("feed returned status %d: %s", resp.StatusCode, string(snippet))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, err
	}

	events := Parse(string(body))
	return c.filterHorizon(events), nil
}

// filterHorizon drops events ending more than a year ago or starting more
// than two years out.
func (c *Client) filterHorizon(events []feedsync.ImportedEvent) []feedsync.ImportedEvent {
	today := daterange.Midnight(c.now())
	pastLimit := today.AddDate(-1, 0, 0)
	futureLimit := today.AddDate(2, 0, 0)

	kept := events[:0]
	for _, event := range events {
		if event.End.Before(pastLimit) || event.Start.After(futureLimit) {
			continue
		}
		kept = append(kept, event)
	}
	return kept
}

// Parse extracts VEVENT blocks from raw iCalendar text. DTEND is exclusive
// on the wire; the returned End is the last blocked day.
func Parse(raw string) []feedsync.ImportedEvent {
	lines := unfold(raw)

	var events []feedsync.ImportedEvent
	var current *feedsync.ImportedEvent
	var status string
	for _, line := range lines {
		switch {
		case strings.EqualFold(line, "BEGIN:VEVENT"):
			current = &feedsync.ImportedEvent{}
			status = ""
		case strings.EqualFold(line, "END:VEVENT"):
			if current != nil && !current.Start.IsZero() {
				if current.End.IsZero() || current.End.Before(current.Start) {
					current.End = current.Start
				}
				current.Booked = isBooked(status, current.Summary)
				events = append(events, *current)
			}
			current = nil
		default:
			if current == nil {
				continue
			}
			name, value := property(line)
			switch name {
			case "DTSTART":
				if t, ok := parseICalDate(value); ok {
					current.Start = t
				}
			case "DTEND":
				if t, ok := parseICalDate(value); ok {
					// exclusive on the wire
					current.End = t.AddDate(0, 0, -1)
				}
			case "UID":
				current.UID = value
			case "SUMMARY":
				current.Summary = value
			case "STATUS":
				status = strings.ToUpper(strings.TrimSpace(value))
			}
		}
	}
	return events
}

// unfold joins continuation lines (RFC 5545 folding: a line starting with
// space or tab continues the previous one) and trims line endings.
func unfold(raw string) []string {
	rawLines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	var lines []string
	for _, line := range rawLines {
		if line == "" {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && len(lines) > 0 {
			lines[len(lines)-1] += strings.TrimLeft(line, " \t")
			continue
		}
		lines = append(lines, strings.TrimRight(line, "\r"))
	}
	return lines
}

// property splits "NAME;PARAM=X:value" into the bare name and the value.
func property(line string) (string, string) {
	colon := strings.Index(line, ":")
	if colon < 0 {
		return "", ""
	}
	name := line[:colon]
	if semi := strings.Index(name, ";"); semi >= 0 {
		name = name[:semi]
	}
	return strings.ToUpper(strings.TrimSpace(name)), strings.TrimSpace(line[colon+1:])
}

func parseICalDate(value string) (time.Time, bool) {
	if len(value) >= 8 {
		if t, err := time.Parse("20060102", value[:8]); err == nil {
			return daterange.Midnight(t), true
		}
	}
	return time.Time{}, false
}

// isBooked treats confirmed and status-less events as reservations, plus
// anything whose summary names a booking.
func isBooked(status, summary string) bool {
	if status == "CANCELLED" {
		return false
	}
	if status == "" || status == "CONFIRMED" {
		return true
	}
	lower := strings.ToLower(summary)
	for _, word := range bookedSummaryWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

var _ feedsync.Downloader = (*Client)(nil)
