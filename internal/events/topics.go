package events

// Topic constants for domain events emitted by the booking flow.
const (
	TopicSessionStarted = "booking.session_started"
	TopicOrderCreated   = "booking.order_created"
	TopicOrderFailed    = "booking.order_failed"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicSessionStarted,
		TopicOrderCreated,
		TopicOrderFailed,
	}
}
