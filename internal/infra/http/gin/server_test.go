package ginserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/app/bookingsvc"
	"rentcal/internal/app/calendarsvc"
	"rentcal/internal/app/feedsync"
	"rentcal/internal/domain/listings"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/infra/config"
	"rentcal/internal/infra/obs"
	"rentcal/internal/infra/storage/memory"
)

type noopDownloader struct{}

func (noopDownloader) Download(ctx context.Context, url string) ([]feedsync.ImportedEvent, error) {
	return nil, nil
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	usd := func(cents int64) money.Money { return money.Money{Amount: cents, Currency: "USD"} }
	listing, err := listings.New(listings.CreateParams{
		ID:                 "lst-1",
		Host:               "host-1",
		Title:              "City flat",
		GapBetweenBookings: 1,
		MinStayNights:      2,
		MaxStayNights:      28,
		MaxBookingAdvance:  365,
		MaxGuests:          4,
		IncludedGuests:     2,
		BasePrice:          usd(10000),
		ExtraGuestFee:      usd(1500),
		CleaningFee:        usd(5000),
		Now:                daterange.Date(2026, time.January, 1),
	})
	require.NoError(t, err)

	listingRepo := memory.NewListingRepository()
	require.NoError(t, listingRepo.Save(context.Background(), listing))
	bookingRepo := memory.NewBookingRepository()
	ruleRepo := memory.NewRuleRepository()
	feedRepo := memory.NewFeedRepository()

	now := func() time.Time { return daterange.Date(2026, time.June, 1) }
	calendarSvc := &calendarsvc.Service{
		Listings: listingRepo,
		Bookings: bookingRepo,
		Rules:    ruleRepo,
		Now:      now,
	}
	bookingSvc := &bookingsvc.Service{Calendar: calendarSvc, Bookings: bookingRepo, Now: now}
	feedSvc := &feedsync.Service{
		Feeds:      feedRepo,
		Rules:      ruleRepo,
		Downloader: noopDownloader{},
		Calendar:   calendarSvc,
		Now:        now,
	}

	server := NewServer(
		config.Config{Env: "test", HTTPAddr: ":0"},
		obs.Middleware{},
		obs.HealthHandlers{},
		Handlers{
			Calendar: &CalendarHandler{Service: calendarSvc},
			Booking:  &BookingHandler{Service: bookingSvc},
			Feed:     &FeedHandler{Service: feedSvc},
		},
	)
	return server.Handler
}

func doRequest(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLivez(t *testing.T) {
	h := newTestServer(t)
	rec := doRequest(h, http.MethodGet, "/livez", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetCalendar(t *testing.T) {
	h := newTestServer(t)
	rec := doRequest(h, http.MethodGet, "/api/v1/listings/lst-1/calendar?from=2026-06-01&to=2026-06-30", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ListingID string `json:"listing_id"`
		Meta      struct {
			WindowDays int `json:"window_days"`
			MinStay    int `json:"min_stay"`
		} `json:"meta"`
		BlockedRanges []any `json:"blocked_ranges"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "lst-1", body.ListingID)
	assert.Equal(t, 30, body.Meta.WindowDays)
	assert.Equal(t, 2, body.Meta.MinStay)
	assert.NotNil(t, body.BlockedRanges, "empty sets still serialize as arrays")
}

func TestGetCalendarMissingParams(t *testing.T) {
	h := newTestServer(t)
	rec := doRequest(h, http.MethodGet, "/api/v1/listings/lst-1/calendar?from=2026-06-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCalendarBadDate(t *testing.T) {
	h := newTestServer(t)
	rec := doRequest(h, http.MethodGet, "/api/v1/listings/lst-1/calendar?from=June-1&to=2026-06-30", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPrices(t *testing.T) {
	h := newTestServer(t)
	rec := doRequest(h, http.MethodGet, "/api/v1/listings/lst-1/prices?from=2026-06-01&to=2026-06-30", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ListingID string `json:"listing_id"`
		Currency  string `json:"currency"`
		Prices    []struct {
			Date   string `json:"date"`
			Price  string `json:"price"`
			Custom bool   `json:"custom"`
		} `json:"prices"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "lst-1", body.ListingID)
	assert.Equal(t, "USD", body.Currency)
	require.Len(t, body.Prices, 30)
	assert.Equal(t, "2026-06-01", body.Prices[0].Date)
	assert.Equal(t, "100.00", body.Prices[0].Price)
	assert.False(t, body.Prices[0].Custom)
}

func TestAvailabilityUnknownListing(t *testing.T) {
	h := newTestServer(t)
	rec := doRequest(h, http.MethodGet, "/api/v1/listings/ghost/availability?check_in=2026-06-10&check_out=2026-06-14", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAvailabilityUnavailableIsStill200(t *testing.T) {
	h := newTestServer(t)
	rec := doRequest(h, http.MethodGet, "/api/v1/listings/lst-1/availability?check_in=2026-06-10&check_out=2026-06-11", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Available bool   `json:"available"`
		Reason    string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Available)
	assert.Contains(t, body.Reason, "minimum stay")
}

func TestQuote(t *testing.T) {
	h := newTestServer(t)
	rec := doRequest(h, http.MethodGet, "/api/v1/listings/lst-1/quote?check_in=2026-06-10&check_out=2026-06-14&guests=3", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Nights int    `json:"nights"`
		Total  string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Nights)
	// 4 nights base, 1 extra guest for 4 nights, cleaning
	assert.Equal(t, "510.00", body.Total)
}

func TestCreateBookingLifecycle(t *testing.T) {
	h := newTestServer(t)

	rec := doRequest(h, http.MethodPost, "/api/v1/bookings",
		`{"listing_id":"lst-1","guest_id":"guest-1","check_in":"2026-06-10","check_out":"2026-06-14","guests":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "pending", created.Status)

	rec = doRequest(h, http.MethodPost, "/api/v1/bookings",
		`{"listing_id":"lst-1","guest_id":"guest-2","check_in":"2026-06-12","check_out":"2026-06-16","guests":2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(h, http.MethodPost, "/api/v1/bookings/"+created.ID+"/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, http.MethodPost, "/api/v1/bookings/"+created.ID+"/cancel", `{"reason":"guest request"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var cancelled struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, "cancelled", cancelled.Status)
}

func TestCreateBookingMissingFields(t *testing.T) {
	h := newTestServer(t)
	rec := doRequest(h, http.MethodPost, "/api/v1/bookings", `{"listing_id":"lst-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmUnknownBooking(t *testing.T) {
	h := newTestServer(t)
	rec := doRequest(h, http.MethodPost, "/api/v1/bookings/ghost/confirm", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSyncUnknownFeed(t *testing.T) {
	h := newTestServer(t)
	rec := doRequest(h, http.MethodPost, "/api/v1/feeds/ghost/sync", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
