package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentcal/internal/app/feedsync"
	"rentcal/internal/domain/listings"
)

type FeedRepository struct {
	col *mongo.Collection
}

func NewFeedRepository(db *mongo.Database) *FeedRepository {
	return &FeedRepository{col: db.Collection("external_feeds")}
}

func (r *FeedRepository) ByID(ctx context.Context, id string) (*feedsync.Feed, error) {
	var doc feedDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, feedsync.ErrFeedNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *FeedRepository) ListActive(ctx context.Context) ([]*feedsync.Feed, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*feedsync.Feed
	for cur.Next(ctx) {
		var doc feedDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

func (r *FeedRepository) Save(ctx context.Context, feed *feedsync.Feed) error {
	doc := newFeedDocument(feed)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

var _ feedsync.FeedRepository = (*FeedRepository)(nil)

type feedDocument struct {
	ID             string `bson:"_id"`
	ListingID      string `bson:"listing_id"`
	Name           string `bson:"name"`
	Provider       string `bson:"provider"`
	URL            string `bson:"url"`
	Active         bool   `bson:"active"`
	LastSync       int64  `bson:"last_sync"`
	LastSyncStatus string `bson:"last_sync_status"`
	LastSyncError  string `bson:"last_sync_error"`
	CreatedAt      int64  `bson:"created_at"`
	UpdatedAt      int64  `bson:"updated_at"`
}

func newFeedDocument(f *feedsync.Feed) feedDocument {
	return feedDocument{
		ID:             f.ID,
		ListingID:      string(f.ListingID),
		Name:           f.Name,
		Provider:       f.Provider,
		URL:            f.URL,
		Active:         f.Active,
		LastSync:       dateToMillis(f.LastSync),
		LastSyncStatus: string(f.LastSyncStatus),
		LastSyncError:  f.LastSyncError,
		CreatedAt:      dateToMillis(f.CreatedAt),
		UpdatedAt:      dateToMillis(f.UpdatedAt),
	}
}

func (d feedDocument) toDomain() *feedsync.Feed {
	return &feedsync.Feed{
		ID:             d.ID,
		ListingID:      listings.ListingID(d.ListingID),
		Name:           d.Name,
		Provider:       d.Provider,
		URL:            d.URL,
		Active:         d.Active,
		LastSync:       millisToDate(d.LastSync),
		LastSyncStatus: feedsync.SyncStatus(d.LastSyncStatus),
		LastSyncError:  d.LastSyncError,
		CreatedAt:      millisToDate(d.CreatedAt),
		UpdatedAt:      millisToDate(d.UpdatedAt),
	}
}
