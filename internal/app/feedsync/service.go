package feedsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentcal/internal/app/calendarsvc"
	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/shared/events"
)

// ImportedEvent is one blocked period parsed from an external feed,
// as an inclusive day span.
type ImportedEvent struct {
	UID     string
	Start   time.Time
	End     time.Time
	Summary string
	Booked  bool
}

// Downloader fetches and parses a remote calendar feed.
type Downloader interface {
	Download(ctx context.Context, url string) ([]ImportedEvent, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
}

// Service synchronizes external feeds into closure rules. Each sync is a
// full replace of the closures the feed owns; a failed sync leaves the
// previous import untouched and records the error on the feed.
type Service struct {
	Feeds      FeedRepository
	Rules      calendar.RuleRepository
	Downloader Downloader
	Calendar   *calendarsvc.Service
	Publisher  EventPublisher
	Logger     *slog.Logger
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Sync refreshes one feed. The returned count is the number of closures
// imported.
func (s *Service) Sync(ctx context.Context, feedID string) (int, error) {
	feed, err := s.Feeds.ByID(ctx, feedID)
	if err != nil {
		if errors.Is(err, ErrFeedNotFound) {
			return 0, fmt.Errorf("%w: feed %s", calendar.ErrNotFound, feedID)
		}
		return 0, fmt.Errorf("%w: load feed: %v", calendar.ErrUpstreamUnavailable, err)
	}

	count, err := s.sync(ctx, feed)
	s.recordOutcome(ctx, feed, err)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// SyncAllDue refreshes every active feed. A failing feed never blocks the
// others; the first error is returned after all feeds ran.
func (s *Service) SyncAllDue(ctx context.Context) error {
	feeds, err := s.Feeds.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("%w: list feeds: %v", calendar.ErrUpstreamUnavailable, err)
	}
	var firstErr error
	for _, feed := range feeds {
		count, err := s.sync(ctx, feed)
		s.recordOutcome(ctx, feed, err)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if s.Logger != nil {
				s.Logger.Warn("feed sync failed", "feed_id", feed.ID, "listing_id", feed.ListingID, "error", err)
			}
			continue
		}
		if s.Logger != nil {
			s.Logger.Info("feed synced", "feed_id", feed.ID, "listing_id", feed.ListingID, "closures", count)
		}
	}
	return firstErr
}

func (s *Service) sync(ctx context.Context, feed *Feed) (int, error) {
	if !feed.Active {
		return 0, fmt.Errorf("%w: feed %s is inactive", calendar.ErrInvalidRequest, feed.ID)
	}

	imported, err := s.Downloader.Download(ctx, feed.URL)
	if err != nil {
		return 0, fmt.Errorf("%w: download %s: %v", calendar.ErrUpstreamUnavailable, feed.URL, err)
	}

	now := s.now()
	closures := make([]calendar.ClosureRule, 0, len(imported))
	for _, event := range imported {
		if !event.Booked {
			continue
		}
		span, err := calendar.NewDateSpan(event.Start, event.End)
		if err != nil {
			continue
		}
		closures = append(closures, calendar.ClosureRule{
			ID:              uuid.NewString(),
			ListingID:       feed.ListingID,
			Span:            span,
			Reason:          event.Summary,
			ExternalBooking: true,
			FeedTag:         feed.Tag(),
			CreatedAt:       now,
		})
	}

	if err := s.Rules.ReplaceImportedClosures(ctx, feed.ListingID, feed.Tag(), closures); err != nil {
		return 0, fmt.Errorf("%w: replace closures: %v", calendar.ErrUpstreamUnavailable, err)
	}

	if s.Calendar != nil {
		s.Calendar.InvalidateListing(feed.ListingID)
	}
	if s.Publisher != nil {
		event := calendar.ClosuresImported{ListingID: feed.ListingID, FeedID: feed.ID, Count: len(closures), At: now}
		if err := s.Publisher.Publish(ctx, event); err != nil && s.Logger != nil {
			s.Logger.Warn("event publish failed", "event", event.EventName(), "feed_id", feed.ID, "error", err)
		}
	}
	return len(closures), nil
}

// recordOutcome persists the sync status on the feed record. Losing the
// status update is logged but does not fail the sync.
func (s *Service) recordOutcome(ctx context.Context, feed *Feed, syncErr error) {
	feed.LastSync = s.now()
	feed.UpdatedAt = feed.LastSync
	if syncErr != nil {
		feed.LastSyncStatus = SyncError
		feed.LastSyncError = syncErr.Error()
	} else {
		feed.LastSyncStatus = SyncSuccess
		feed.LastSyncError = ""
	}
	if err := s.Feeds.Save(ctx, feed); err != nil && s.Logger != nil {
		s.Logger.Warn("feed status update failed", "feed_id", feed.ID, "error", err)
	}
}

// RunPeriodic drives SyncAllDue on a fixed interval until the context ends.
func (s *Service) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SyncAllDue(ctx); err != nil && s.Logger != nil {
				s.Logger.Warn("periodic feed sync finished with errors", "error", err)
			}
		}
	}
}
