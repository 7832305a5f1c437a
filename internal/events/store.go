package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// MemoryStore keeps the most recent events in a bounded in-memory ring. It
// exists for operational introspection; the order of record lives upstream.
type MemoryStore struct {
	mu     sync.Mutex
	limit  int
	events []Event
}

// NewMemoryStore constructs a ring store holding at most limit events.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = 256
	}
	return &MemoryStore{limit: limit}
}

// Append records an event, evicting the oldest when full.
func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if len(s.events) > s.limit {
		s.events = s.events[len(s.events)-s.limit:]
	}
	return nil
}

// Recent returns a copy of the stored events, oldest first.
func (s *MemoryStore) Recent() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// LogNotifier writes each emitted event to the structured log.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, event Event) error {
	n.Logger.Info().
		Str("event_id", event.ID).
		Str("topic", event.Topic).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", event.Payload).
		Msg("domain_event")
	return nil
}
