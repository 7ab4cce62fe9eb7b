package models

// Event types emitted by the pipeline
const (
	EventSwipeCreated = "swipe.created"
	EventMatchCreated = "match.created"
	EventJobCreated   = "notification.job.created"
)

// Event is the envelope delivered to event handlers. The bus guarantees
// at-least-once delivery only: the same event may reach a handler more than
// once, and related events may run concurrently on different workers. ID is
// deterministic (it is the id of the record that triggered the event) so
// handlers can derive stable idempotency keys from it.
type Event struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	Swipe      *Swipe           `json:"swipe,omitempty"`
	Match      *Match           `json:"match,omitempty"`
	Job        *NotificationJob `json:"job,omitempty"`
	OccurredAt string           `json:"occurredAt"`
}
