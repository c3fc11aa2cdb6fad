package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rentcal/internal/app/bookingsvc"
	"rentcal/internal/app/calendarsvc"
	"rentcal/internal/app/feedsync"
	"rentcal/internal/domain/booking"
	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/listings"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/infra/broker/kafka"
	"rentcal/internal/infra/cache"
	"rentcal/internal/infra/config"
	mongodb "rentcal/internal/infra/db/mongo"
	"rentcal/internal/infra/feed"
	ginserver "rentcal/internal/infra/http/gin"
	"rentcal/internal/infra/obs"
	"rentcal/internal/infra/storage/memory"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Checks: app.readiness,
	}, app.handlers)

	if cfg.StorageMode == "memory" {
		path := cfg.FixturesPath
		if path == "" {
			path = filepath.Join("data", "listings.json")
		}
		if err := app.loadFixtures(ctx, path, logger); err != nil {
			logger.Warn("fixtures load failed", "error", err, "path", path)
		}
	}

	go app.feeds.RunPeriodic(ctx, cfg.FeedSyncInterval)

	if app.consumer != nil {
		go func() {
			topics := []string{cfg.KafkaTopicPrefix + kafka.CalendarEventsTopic}
			if err := app.consumer.Run(ctx, topics); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("kafka consumer stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers  ginserver.Handlers
	feeds     *feedsync.Service
	consumer  *kafka.Consumer
	producer  *kafka.Producer
	readiness map[string]func() error

	listingRepo listings.Repository
	ruleRepo    calendar.RuleRepository
	feedRepo    feedsync.FeedRepository
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{readiness: map[string]func() error{}}

	var bookingRepo booking.Repository
	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		bookings := mongodb.NewBookingRepository(client.DB)
		rules := mongodb.NewRuleRepository(client.DB)
		if err := bookings.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("ensure booking indexes: %w", err)
		}
		if err := rules.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("ensure rule indexes: %w", err)
		}
		app.listingRepo = mongodb.NewListingRepository(client.DB)
		app.ruleRepo = rules
		app.feedRepo = mongodb.NewFeedRepository(client.DB)
		bookingRepo = bookings
		app.readiness["mongo"] = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
	default:
		app.listingRepo = memory.NewListingRepository()
		app.ruleRepo = memory.NewRuleRepository()
		app.feedRepo = memory.NewFeedRepository()
		bookingRepo = memory.NewBookingRepository()
	}

	calendarCache := cache.NewCalendarCache(cfg.CalendarCacheTTL)

	calendarSvc := &calendarsvc.Service{
		Listings: app.listingRepo,
		Bookings: bookingRepo,
		Rules:    app.ruleRepo,
		Cache:    calendarCache,
		Logger:   logger,
	}

	var publisher *kafka.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		app.producer = producer
		publisher = &kafka.EventPublisher{Producer: producer, TopicPrefix: cfg.KafkaTopicPrefix}

		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, "rentcal-cache", nil, &kafka.CacheInvalidator{
			Cache:  calendarCache,
			Logger: logger,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("join kafka group: %w", err)
		}
		app.consumer = consumer
	}

	bookingSvc := &bookingsvc.Service{
		Calendar: calendarSvc,
		Bookings: bookingRepo,
		Logger:   logger,
	}
	if publisher != nil {
		bookingSvc.Publisher = publisher
	}

	app.feeds = &feedsync.Service{
		Feeds:      app.feedRepo,
		Rules:      app.ruleRepo,
		Downloader: feed.NewClient(cfg.FeedHTTPTimeout, cfg.FeedUserAgent, logger),
		Calendar:   calendarSvc,
		Logger:     logger,
	}
	if publisher != nil {
		app.feeds.Publisher = publisher
	}

	app.handlers = ginserver.Handlers{
		Calendar: &ginserver.CalendarHandler{Service: calendarSvc},
		Booking:  &ginserver.BookingHandler{Service: bookingSvc},
		Feed:     &ginserver.FeedHandler{Service: app.feeds},
	}
	return app, nil
}

func (a *application) close(logger *slog.Logger) {
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			logger.Warn("kafka consumer close failed", "error", err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			logger.Warn("kafka producer close failed", "error", err)
		}
	}
}

// loadFixtures seeds the in-memory store for dev runs. Each entry carries
// the listing policy plus optional price rules and feeds.
func (a *application) loadFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}

	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range fixtures {
		listing, err := listings.New(listings.CreateParams{
			ID:                 listings.ListingID(fx.ID),
			Host:               listings.HostID(fx.Host),
			Title:              fx.Title,
			GapBetweenBookings: fx.GapDays,
			MinStayNights:      fx.MinStay,
			MaxStayNights:      fx.MaxStay,
			MinBookingAdvance:  fx.MinAdvance,
			MaxBookingAdvance:  fx.MaxAdvance,
			MaxGuests:          fx.MaxGuests,
			IncludedGuests:     fx.IncludedGuests,
			BasePrice:          money.Money{Amount: fx.BasePriceCents, Currency: fx.Currency},
			ExtraGuestFee:      money.Money{Amount: fx.ExtraGuestFeeCents, Currency: fx.Currency},
			CleaningFee:        money.Money{Amount: fx.CleaningFeeCents, Currency: fx.Currency},
			Now:                now,
		})
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		listing.Activate(now)
		if err := a.listingRepo.Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		for _, f := range fx.Feeds {
			feedRec := &feedsync.Feed{
				ID:        f.ID,
				ListingID: listing.ID,
				Name:      f.Name,
				Provider:  f.Provider,
				URL:       f.URL,
				Active:    true,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := a.feedRepo.Save(ctx, feedRec); err != nil {
				logger.Error("cannot store fixture feed", "feed_id", f.ID, "error", err)
			}
		}
		logger.Info("listing fixture imported", "listing_id", listing.ID)
	}
	return nil
}

type listingFixture struct {
	ID                 string        `json:"id"`
	Host               string        `json:"host"`
	Title              string        `json:"title"`
	GapDays            int           `json:"gap_days"`
	MinStay            int           `json:"min_stay"`
	MaxStay            int           `json:"max_stay"`
	MinAdvance         int           `json:"min_advance"`
	MaxAdvance         int           `json:"max_advance"`
	MaxGuests          int           `json:"max_guests"`
	IncludedGuests     int           `json:"included_guests"`
	BasePriceCents     int64         `json:"base_price_cents"`
	ExtraGuestFeeCents int64         `json:"extra_guest_fee_cents"`
	CleaningFeeCents   int64         `json:"cleaning_fee_cents"`
	Currency           string        `json:"currency"`
	Feeds              []feedFixture `json:"feeds"`
}

type feedFixture struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	URL      string `json:"url"`
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
