package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/domain/calendar"
)

type fakeCache struct {
	deleted []string
	err     error
}

func (c *fakeCache) Get(string) (calendar.Result, bool) { return calendar.Result{}, false }
func (c *fakeCache) Set(string, calendar.Result)        {}
func (c *fakeCache) DeleteListing(listingID string) error {
	c.deleted = append(c.deleted, listingID)
	return c.err
}

func eventMessage(t *testing.T, listingID string) *sarama.ConsumerMessage {
	t.Helper()
	payload, err := json.Marshal(struct{ ListingID string }{ListingID: listingID})
	require.NoError(t, err)
	body, err := json.Marshal(envelope{
		Name:       "booking.requested",
		Aggregate:  "bkg-1",
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: CalendarEventsTopic, Value: body}
}

func TestInvalidatorEvictsListing(t *testing.T) {
	cache := &fakeCache{}
	h := &CacheInvalidator{Cache: cache}

	err := h.Handle(context.Background(), eventMessage(t, "lst-1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"lst-1"}, cache.deleted)
}

func TestInvalidatorDropsMalformedMessage(t *testing.T) {
	cache := &fakeCache{}
	h := &CacheInvalidator{Cache: cache}

	err := h.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte("not json")})
	require.NoError(t, err)
	assert.Empty(t, cache.deleted)
}

func TestInvalidatorIgnoresEventsWithoutListing(t *testing.T) {
	cache := &fakeCache{}
	h := &CacheInvalidator{Cache: cache}

	err := h.Handle(context.Background(), eventMessage(t, ""))
	require.NoError(t, err)
	assert.Empty(t, cache.deleted)
}

func TestInvalidatorSurfacesEvictionFailure(t *testing.T) {
	cache := &fakeCache{err: errors.New("cache poisoned")}
	h := &CacheInvalidator{Cache: cache}

	err := h.Handle(context.Background(), eventMessage(t, "lst-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lst-1")
}
