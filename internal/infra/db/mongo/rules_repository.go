package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/listings"
	"rentcal/internal/domain/shared/money"
)

type RuleRepository struct {
	db         *mongo.Database
	closures   *mongo.Collection
	checkInOut *mongo.Collection
	priceRules *mongo.Collection
}

func NewRuleRepository(db *mongo.Database) *RuleRepository {
	return &RuleRepository{
		db:         db,
		closures:   db.Collection("closure_rules"),
		checkInOut: db.Collection("checkinout_rules"),
		priceRules: db.Collection("price_rules"),
	}
}

func (r *RuleRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.closures.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "start", Value: 1}},
	}); err != nil {
		return err
	}
	if _, err := r.closures.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "feed_tag", Value: 1}},
	}); err != nil {
		return err
	}
	_, err := r.priceRules.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "start", Value: 1}},
	})
	return err
}

func (r *RuleRepository) ClosuresInWindow(ctx context.Context, listingID listings.ListingID, window calendar.DateSpan) ([]calendar.ClosureRule, error) {
	filter := bson.M{
		"listing_id": string(listingID),
		"start":      bson.M{"$lte": dateToMillis(window.End)},
		"end":        bson.M{"$gte": dateToMillis(window.Start)},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cur, err := r.closures.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []calendar.ClosureRule
	for cur.Next(ctx) {
		var doc closureDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

func (r *RuleRepository) CheckInOutRules(ctx context.Context, listingID listings.ListingID) ([]calendar.CheckInOutRule, error) {
	cur, err := r.checkInOut.Find(ctx, bson.M{"listing_id": string(listingID)})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []calendar.CheckInOutRule
	for cur.Next(ctx) {
		var doc checkInOutDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

func (r *RuleRepository) PriceRules(ctx context.Context, listingID listings.ListingID) ([]calendar.PriceRule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cur, err := r.priceRules.Find(ctx, bson.M{"listing_id": string(listingID)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []calendar.PriceRule
	for cur.Next(ctx) {
		var doc priceRuleDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

func (r *RuleRepository) SaveClosure(ctx context.Context, rule calendar.ClosureRule) error {
	doc := newClosureDocument(rule)
	opts := options.Replace().SetUpsert(true)
	_, err := r.closures.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

func (r *RuleRepository) SaveCheckInOutRule(ctx context.Context, rule calendar.CheckInOutRule) error {
	doc := newCheckInOutDocument(rule)
	opts := options.Replace().SetUpsert(true)
	_, err := r.checkInOut.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

func (r *RuleRepository) SavePriceRule(ctx context.Context, rule calendar.PriceRule) error {
	doc := newPriceRuleDocument(rule)
	opts := options.Replace().SetUpsert(true)
	_, err := r.priceRules.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

// ReplaceImportedClosures deletes the feed's previous closures and inserts
// the fresh set inside one transaction, so a failed sync never leaves a
// listing half-imported.
func (r *RuleRepository) ReplaceImportedClosures(ctx context.Context, listingID listings.ListingID, feedTag string, rules []calendar.ClosureRule) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.closures.DeleteMany(sc, bson.M{"listing_id": string(listingID), "feed_tag": feedTag}); err != nil {
			return nil, err
		}
		if len(rules) == 0 {
			return nil, nil
		}
		docs := make([]interface{}, 0, len(rules))
		for _, rule := range rules {
			docs = append(docs, newClosureDocument(rule))
		}
		if _, err := r.closures.InsertMany(sc, docs); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

var _ calendar.RuleRepository = (*RuleRepository)(nil)

type closureDocument struct {
	ID              string `bson:"_id"`
	ListingID       string `bson:"listing_id"`
	Start           int64  `bson:"start"`
	End             int64  `bson:"end"`
	Reason          string `bson:"reason"`
	ExternalBooking bool   `bson:"external_booking"`
	FeedTag         string `bson:"feed_tag"`
	CreatedAt       int64  `bson:"created_at"`
}

func newClosureDocument(rule calendar.ClosureRule) closureDocument {
	return closureDocument{
		ID:              rule.ID,
		ListingID:       string(rule.ListingID),
		Start:           dateToMillis(rule.Span.Start),
		End:             dateToMillis(rule.Span.End),
		Reason:          rule.Reason,
		ExternalBooking: rule.ExternalBooking,
		FeedTag:         rule.FeedTag,
		CreatedAt:       dateToMillis(rule.CreatedAt),
	}
}

func (d closureDocument) toDomain() calendar.ClosureRule {
	return calendar.ClosureRule{
		ID:              d.ID,
		ListingID:       listings.ListingID(d.ListingID),
		Span:            calendar.DateSpan{Start: millisToDate(d.Start), End: millisToDate(d.End)},
		Reason:          d.Reason,
		ExternalBooking: d.ExternalBooking,
		FeedTag:         d.FeedTag,
		CreatedAt:       millisToDate(d.CreatedAt),
	}
}

type checkInOutDocument struct {
	ID         string `bson:"_id"`
	ListingID  string `bson:"listing_id"`
	Kind       string `bson:"kind"`
	Recurrence string `bson:"recurrence"`
	OnDate     int64  `bson:"on_date,omitempty"`
	Weekday    int    `bson:"weekday,omitempty"`
	CreatedAt  int64  `bson:"created_at"`
}

func newCheckInOutDocument(rule calendar.CheckInOutRule) checkInOutDocument {
	doc := checkInOutDocument{
		ID:         rule.ID,
		ListingID:  string(rule.ListingID),
		Kind:       string(rule.Kind),
		Recurrence: string(rule.Recur.Kind),
		Weekday:    rule.Recur.Weekday,
		CreatedAt:  dateToMillis(rule.CreatedAt),
	}
	if rule.Recur.Kind == calendar.SpecificDate {
		doc.OnDate = dateToMillis(rule.Recur.OnDate)
	}
	return doc
}

func (d checkInOutDocument) toDomain() calendar.CheckInOutRule {
	rule := calendar.CheckInOutRule{
		ID:        d.ID,
		ListingID: listings.ListingID(d.ListingID),
		Kind:      calendar.RuleKind(d.Kind),
		Recur:     calendar.Recurrence{Kind: calendar.RecurrenceKind(d.Recurrence), Weekday: d.Weekday},
		CreatedAt: millisToDate(d.CreatedAt),
	}
	if rule.Recur.Kind == calendar.SpecificDate {
		rule.Recur.OnDate = millisToDate(d.OnDate)
	}
	return rule
}

type priceRuleDocument struct {
	ID           string `bson:"_id"`
	ListingID    string `bson:"listing_id"`
	Start        int64  `bson:"start"`
	End          int64  `bson:"end"`
	NightlyCents int64  `bson:"nightly_cents"`
	Currency     string `bson:"currency"`
	MinNights    *int   `bson:"min_nights,omitempty"`
	CreatedAt    int64  `bson:"created_at"`
}

func newPriceRuleDocument(rule calendar.PriceRule) priceRuleDocument {
	return priceRuleDocument{
		ID:           rule.ID,
		ListingID:    string(rule.ListingID),
		Start:        dateToMillis(rule.Span.Start),
		End:          dateToMillis(rule.Span.End),
		NightlyCents: rule.Nightly.Amount,
		Currency:     rule.Nightly.Currency,
		MinNights:    rule.MinNights,
		CreatedAt:    dateToMillis(rule.CreatedAt),
	}
}

func (d priceRuleDocument) toDomain() calendar.PriceRule {
	return calendar.PriceRule{
		ID:        d.ID,
		ListingID: listings.ListingID(d.ListingID),
		Span:      calendar.DateSpan{Start: millisToDate(d.Start), End: millisToDate(d.End)},
		Nightly:   money.Money{Amount: d.NightlyCents, Currency: d.Currency},
		MinNights: d.MinNights,
		CreatedAt: millisToDate(d.CreatedAt),
	}
}
