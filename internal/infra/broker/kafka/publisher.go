package kafka

import (
	"context"
	"encoding/json"
	"time"

	"rentcal/internal/domain/shared/events"
)

// CalendarEventsTopic carries every calendar-affecting write; consumers use
// it to evict per-listing calendar caches.
const CalendarEventsTopic = "calendar-events"

type envelope struct {
	Name       string          `json:"name"`
	Aggregate  string          `json:"aggregate_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// EventPublisher adapts the raw producer to domain events.
type EventPublisher struct {
	Producer    *Producer
	TopicPrefix string
}

func (p *EventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	body, err := json.Marshal(envelope{
		Name:       event.EventName(),
		Aggregate:  event.AggregateID(),
		OccurredAt: event.OccurredAt(),
		Payload:    payload,
	})
	if err != nil {
		return err
	}
	return p.Producer.Publish(ctx, p.TopicPrefix+CalendarEventsTopic, event.AggregateID(), body, map[string]string{
		"event": event.EventName(),
	})
}
