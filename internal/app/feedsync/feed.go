package feedsync

import (
	"context"
	"errors"
	"time"

	"rentcal/internal/domain/listings"
)

var ErrFeedNotFound = errors.New("feedsync: feed not found")

type SyncStatus string

const (
	SyncNever   SyncStatus = "never"
	SyncSuccess SyncStatus = "success"
	SyncError   SyncStatus = "error"
)

// Feed is a subscription to an external availability calendar.
type Feed struct {
	ID        string
	ListingID listings.ListingID
	Name      string
	Provider  string
	URL       string
	Active    bool

	LastSync       time.Time
	LastSyncStatus SyncStatus
	LastSyncError  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tag identifies the closures a feed owns in the rule store.
func (f Feed) Tag() string {
	return "feed:" + f.ID
}

type FeedRepository interface {
	ByID(ctx context.Context, id string) (*Feed, error)
	ListActive(ctx context.Context) ([]*Feed, error)
	Save(ctx context.Context, feed *Feed) error
}
