package events

import (
	"context"
	"log"
	"sync"
	"time"

	"gitalong_server/metrics"
	"gitalong_server/models"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultWorkers         = 4
	defaultMaxAttempts     = 5
	defaultDeliveryTimeout = 30 * time.Second
)

// delivery is one (event, handler) pair in flight. Each subscriber gets its
// own delivery so a failing handler is redelivered without re-invoking the
// handlers that already acknowledged.
type delivery struct {
	event   models.Event
	handler Handler
	attempt int
	backoff backoff.BackOff
}

// Dispatcher is the in-process Bus. Deliveries run on a bounded worker pool
// under a per-delivery timeout; a handler error schedules redelivery with
// exponential backoff up to a bounded attempt count, after which the delivery
// is dropped and logged.
type Dispatcher struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler

	queue   chan delivery
	wg      sync.WaitGroup
	pending sync.WaitGroup
	done    chan struct{}

	workers         int
	maxAttempts     int
	deliveryTimeout time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) { d.workers = n }
}

// WithMaxAttempts bounds how many times a failing delivery is attempted.
func WithMaxAttempts(n int) Option {
	return func(d *Dispatcher) { d.maxAttempts = n }
}

// WithDeliveryTimeout bounds how long a single handler invocation may run.
func WithDeliveryTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.deliveryTimeout = t }
}

// NewDispatcher creates a dispatcher and starts its workers.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		subscribers:     map[string][]Handler{},
		queue:           make(chan delivery, 256),
		done:            make(chan struct{}),
		workers:         defaultWorkers,
		maxAttempts:     defaultMaxAttempts,
		deliveryTimeout: defaultDeliveryTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Subscribe registers a handler for an event type. Subscriptions happen at
// startup, before any Publish.
func (d *Dispatcher) Subscribe(eventType string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers[eventType] = append(d.subscribers[eventType], handler)
}

// Publish enqueues an event for every subscriber of its type.
func (d *Dispatcher) Publish(ctx context.Context, event models.Event) error {
	d.mu.RLock()
	handlers := d.subscribers[event.Type]
	d.mu.RUnlock()

	for _, handler := range handlers {
		d.enqueue(delivery{event: event, handler: handler, backoff: newDeliveryBackoff()})
	}
	return nil
}

func (d *Dispatcher) enqueue(del delivery) {
	d.pending.Add(1)
	select {
	case d.queue <- del:
	case <-d.done:
		d.pending.Done()
	default:
		// Queue is full. Hand the send to its own goroutine so a handler
		// that publishes from inside a worker can never block the pool.
		go func() {
			select {
			case d.queue <- del:
			case <-d.done:
				d.pending.Done()
			}
		}()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.done:
			return
		case del := <-d.queue:
			d.deliver(del)
		}
	}
}

func (d *Dispatcher) deliver(del delivery) {
	defer d.pending.Done()

	ctx, cancel := context.WithTimeout(context.Background(), d.deliveryTimeout)
	err := del.handler(ctx, del.event)
	cancel()
	if err == nil {
		return
	}

	del.attempt++
	log.Printf("⚠️ Delivery of %s event %s failed (attempt %d/%d): %v",
		del.event.Type, del.event.ID, del.attempt, d.maxAttempts, err)
	metrics.EventRedeliveries.WithLabelValues(del.event.Type).Inc()

	if del.attempt >= d.maxAttempts {
		log.Printf("❌ Dropping %s event %s after %d attempts", del.event.Type, del.event.ID, del.attempt)
		metrics.EventsDropped.WithLabelValues(del.event.Type).Inc()
		return
	}

	wait := del.backoff.NextBackOff()
	if wait == backoff.Stop {
		wait = time.Second
	}
	d.pending.Add(1)
	time.AfterFunc(wait, func() {
		defer d.pending.Done()
		select {
		case <-d.done:
		default:
			d.enqueue(del)
		}
	})
}

// Drain blocks until every queued and scheduled delivery has settled. Tests
// use it to observe the pipeline's final state.
func (d *Dispatcher) Drain() {
	d.pending.Wait()
}

// Close stops the workers. Queued deliveries are abandoned.
func (d *Dispatcher) Close() {
	close(d.done)
	d.wg.Wait()
}

func newDeliveryBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	return b
}
