package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentcal/internal/domain/booking"
	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/listings"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
)

var (
	ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")
	// ErrDuplicateCheckIn surfaces the unique (listing, check-in) index on
	// active bookings.
	ErrDuplicateCheckIn = errors.New("mongo: active booking with same check-in exists")
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("bookings")}
}

// EnsureIndexes creates the partial unique index backing the
// check-then-insert booking flow.
func (r *BookingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "check_in", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": bson.M{"$in": []string{string(booking.StatusPending), string(booking.StatusConfirmed)}}}),
		},
		{
			Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "check_out", Value: 1}},
		},
	})
	return err
}

func (r *BookingRepository) ByID(ctx context.Context, id booking.BookingID) (*booking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *booking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateCheckIn
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListActive(ctx context.Context, listingID listings.ListingID, window daterange.DateRange) ([]*booking.Booking, error) {
	filter := bson.M{
		"listing_id": string(listingID),
		"status":     bson.M{"$in": []string{string(booking.StatusPending), string(booking.StatusConfirmed)}},
		"check_in":   bson.M{"$lt": dateToMillis(window.CheckOut)},
		"check_out":  bson.M{"$gt": dateToMillis(window.CheckIn)},
	}
	opts := options.Find().SetSort(bson.D{{Key: "check_in", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*booking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

type bookingDocument struct {
	ID        string        `bson:"_id"`
	ListingID string        `bson:"listing_id"`
	GuestID   string        `bson:"guest_id"`
	CheckIn   int64         `bson:"check_in"`
	CheckOut  int64         `bson:"check_out"`
	Guests    int           `bson:"guests"`
	Status    string        `bson:"status"`
	Quote     quoteDocument `bson:"quote"`
	CreatedAt int64         `bson:"created_at"`
	UpdatedAt int64         `bson:"updated_at"`
	Version   int64         `bson:"version"`
}

type quoteDocument struct {
	Nights        int             `bson:"nights"`
	Guests        int             `bson:"guests"`
	Currency      string          `bson:"currency"`
	PerNight      []nightDocument `bson:"per_night"`
	SubtotalCents int64           `bson:"subtotal_cents"`
	ExtraFeeCents int64           `bson:"extra_fee_cents"`
	CleaningCents int64           `bson:"cleaning_cents"`
	TotalCents    int64           `bson:"total_cents"`
}

type nightDocument struct {
	Date       int64 `bson:"date"`
	PriceCents int64 `bson:"price_cents"`
	Custom     bool  `bson:"custom"`
}

func newBookingDocument(b *booking.Booking) bookingDocument {
	perNight := make([]nightDocument, 0, len(b.Quote.PerNight))
	for _, n := range b.Quote.PerNight {
		perNight = append(perNight, nightDocument{Date: dateToMillis(n.Date), PriceCents: n.Price.Amount, Custom: n.Custom})
	}
	return bookingDocument{
		ID:        string(b.ID),
		ListingID: string(b.ListingID),
		GuestID:   b.GuestID,
		CheckIn:   dateToMillis(b.Range.CheckIn),
		CheckOut:  dateToMillis(b.Range.CheckOut),
		Guests:    b.Guests,
		Status:    string(b.Status),
		Quote: quoteDocument{
			Nights:        b.Quote.Nights,
			Guests:        b.Quote.Guests,
			Currency:      b.Quote.Total.Currency,
			PerNight:      perNight,
			SubtotalCents: b.Quote.Subtotal.Amount,
			ExtraFeeCents: b.Quote.ExtraGuestFee.Amount,
			CleaningCents: b.Quote.CleaningFee.Amount,
			TotalCents:    b.Quote.Total.Amount,
		},
		CreatedAt: dateToMillis(b.CreatedAt),
		UpdatedAt: dateToMillis(b.UpdatedAt),
		Version:   b.Version,
	}
}

func (d bookingDocument) toDomain() *booking.Booking {
	perNight := make([]calendar.NightPrice, 0, len(d.Quote.PerNight))
	for _, n := range d.Quote.PerNight {
		perNight = append(perNight, calendar.NightPrice{
			Date:   millisToDate(n.Date),
			Price:  money.Money{Amount: n.PriceCents, Currency: d.Quote.Currency},
			Custom: n.Custom,
		})
	}
	checkIn, checkOut := millisToDate(d.CheckIn), millisToDate(d.CheckOut)
	return &booking.Booking{
		ID:        booking.BookingID(d.ID),
		ListingID: listings.ListingID(d.ListingID),
		GuestID:   d.GuestID,
		Range:     daterange.DateRange{CheckIn: checkIn, CheckOut: checkOut},
		Guests:    d.Guests,
		Status:    booking.Status(d.Status),
		Quote: calendar.Quote{
			CheckIn:       checkIn,
			CheckOut:      checkOut,
			Nights:        d.Quote.Nights,
			Guests:        d.Quote.Guests,
			PerNight:      perNight,
			Subtotal:      money.Money{Amount: d.Quote.SubtotalCents, Currency: d.Quote.Currency},
			ExtraGuestFee: money.Money{Amount: d.Quote.ExtraFeeCents, Currency: d.Quote.Currency},
			CleaningFee:   money.Money{Amount: d.Quote.CleaningCents, Currency: d.Quote.Currency},
			Total:         money.Money{Amount: d.Quote.TotalCents, Currency: d.Quote.Currency},
		},
		CreatedAt: millisToDate(d.CreatedAt),
		UpdatedAt: millisToDate(d.UpdatedAt),
		Version:   d.Version,
	}
}
