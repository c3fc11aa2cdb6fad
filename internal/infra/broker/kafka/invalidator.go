package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"rentcal/internal/app/calendarsvc"
)

// CacheInvalidator evicts per-listing calendar cache entries when another
// instance writes calendar-affecting data. Malformed messages are dropped;
// eviction failures surface to the consumer, which logs them.
type CacheInvalidator struct {
	Cache  calendarsvc.Cache
	Logger *slog.Logger
}

type listingPayload struct {
	ListingID string `json:"ListingID"`
}

func (h *CacheInvalidator) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var env envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("dropping malformed event", "topic", msg.Topic, "error", err)
		}
		return nil
	}
	var payload listingPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.ListingID == "" {
		return nil
	}
	if err := h.Cache.DeleteListing(payload.ListingID); err != nil {
		return fmt.Errorf("evict listing %s: %w", payload.ListingID, err)
	}
	return nil
}

var _ MessageHandler = (*CacheInvalidator)(nil)
