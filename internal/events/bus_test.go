package events_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qdclab/booking-api/internal/events"
)

type captureNotifier struct {
	events []events.Event
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return nil
}

func TestEmitRecordsAndFansOut(t *testing.T) {
	store := events.NewMemoryStore(8)
	notifier := &captureNotifier{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	payload := map[string]any{"orderId": int64(77)}
	ev, err := bus.Emit(context.Background(), events.TopicOrderCreated, "session-1", payload)
	require.NoError(t, err)
	require.NotEmpty(t, ev.ID)
	require.Equal(t, events.TopicOrderCreated, ev.Topic)
	require.JSONEq(t, `{"orderId":77}`, string(ev.Payload))

	recent := store.Recent()
	require.Len(t, recent, 1)
	require.Equal(t, ev.ID, recent[0].ID)
	require.Len(t, notifier.events, 1)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(notifier.events[0].Payload, &decoded))
	require.EqualValues(t, 77, decoded["orderId"])
}

func TestEmitRejectsMissingTopic(t *testing.T) {
	bus := events.Bus{Store: events.NewMemoryStore(1)}
	_, err := bus.Emit(context.Background(), "  ", "agg", nil)
	require.Error(t, err)
}

func TestEmitRejectsUnknownTopic(t *testing.T) {
	store := events.NewMemoryStore(1)
	bus := events.Bus{Store: store}
	_, err := bus.Emit(context.Background(), "booking.session_vaporised", "agg", nil)
	require.ErrorContains(t, err, "unknown topic")
	require.Empty(t, store.Recent())
}

func TestMemoryStoreEvicts(t *testing.T) {
	store := events.NewMemoryStore(2)
	bus := events.Bus{Store: store}
	for i := 0; i < 3; i++ {
		_, err := bus.Emit(context.Background(), events.TopicSessionStarted, "agg", nil)
		require.NoError(t, err)
	}
	require.Len(t, store.Recent(), 2)
}
