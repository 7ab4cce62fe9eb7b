// Package events carries creation events between the pipeline stages. The
// contract is at-least-once: a handler may see the same event multiple times
// and two related events may run concurrently on different workers, so every
// handler must be idempotent. Correctness of the pipeline rests on the store's
// atomic primitives, never on delivery guarantees.
package events

import (
	"context"

	"gitalong_server/models"
)

// Handler processes one event delivery. Returning an error requests
// redelivery; returning nil acknowledges the delivery.
type Handler func(ctx context.Context, event models.Event) error

// Bus publishes creation events to subscribed handlers. The in-process
// Dispatcher is the default implementation; a hosting platform may substitute
// its own delivery infrastructure behind the same interface.
type Bus interface {
	Publish(ctx context.Context, event models.Event) error
	Subscribe(eventType string, handler Handler)
}
