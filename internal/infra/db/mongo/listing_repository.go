package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentcal/internal/domain/listings"
	"rentcal/internal/domain/shared/money"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("listings")}
}

func (r *ListingRepository) ByID(ctx context.Context, id listings.ListingID) (*listings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, listings.ErrListingNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *listings.Listing) error {
	doc := newListingDocument(listing)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

type listingDocument struct {
	ID                 string `bson:"_id"`
	Host               string `bson:"host"`
	Title              string `bson:"title"`
	State              string `bson:"state"`
	GapBetweenBookings int    `bson:"gap_between_bookings"`
	MinStayNights      int    `bson:"min_stay_nights"`
	MaxStayNights      int    `bson:"max_stay_nights"`
	MinBookingAdvance  int    `bson:"min_booking_advance"`
	MaxBookingAdvance  int    `bson:"max_booking_advance"`
	MaxGuests          int    `bson:"max_guests"`
	IncludedGuests     int    `bson:"included_guests"`
	BasePriceCents     int64  `bson:"base_price_cents"`
	ExtraGuestFeeCents int64  `bson:"extra_guest_fee_cents"`
	CleaningFeeCents   int64  `bson:"cleaning_fee_cents"`
	Currency           string `bson:"currency"`
	CreatedAt          int64  `bson:"created_at"`
	UpdatedAt          int64  `bson:"updated_at"`
}

func newListingDocument(l *listings.Listing) listingDocument {
	return listingDocument{
		ID:                 string(l.ID),
		Host:               string(l.Host),
		Title:              l.Title,
		State:              string(l.State),
		GapBetweenBookings: l.GapBetweenBookings,
		MinStayNights:      l.MinStayNights,
		MaxStayNights:      l.MaxStayNights,
		MinBookingAdvance:  l.MinBookingAdvance,
		MaxBookingAdvance:  l.MaxBookingAdvance,
		MaxGuests:          l.MaxGuests,
		IncludedGuests:     l.IncludedGuests,
		BasePriceCents:     l.BasePrice.Amount,
		ExtraGuestFeeCents: l.ExtraGuestFee.Amount,
		CleaningFeeCents:   l.CleaningFee.Amount,
		Currency:           l.BasePrice.Currency,
		CreatedAt:          dateToMillis(l.CreatedAt),
		UpdatedAt:          dateToMillis(l.UpdatedAt),
	}
}

func (d listingDocument) toDomain() *listings.Listing {
	return &listings.Listing{
		ID:                 listings.ListingID(d.ID),
		Host:               listings.HostID(d.Host),
		Title:              d.Title,
		State:              listings.Status(d.State),
		GapBetweenBookings: d.GapBetweenBookings,
		MinStayNights:      d.MinStayNights,
		MaxStayNights:      d.MaxStayNights,
		MinBookingAdvance:  d.MinBookingAdvance,
		MaxBookingAdvance:  d.MaxBookingAdvance,
		MaxGuests:          d.MaxGuests,
		IncludedGuests:     d.IncludedGuests,
		BasePrice:          money.Money{Amount: d.BasePriceCents, Currency: d.Currency},
		ExtraGuestFee:      money.Money{Amount: d.ExtraGuestFeeCents, Currency: d.Currency},
		CleaningFee:        money.Money{Amount: d.CleaningFeeCents, Currency: d.Currency},
		CreatedAt:          millisToDate(d.CreatedAt),
		UpdatedAt:          millisToDate(d.UpdatedAt),
	}
}
