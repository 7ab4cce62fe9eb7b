package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gitalong_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(id string) models.Event {
	return models.Event{ID: id, Type: models.EventSwipeCreated}
}

func TestDispatcherDeliversToAllSubscribers(t *testing.T) {
	d := NewDispatcher(WithWorkers(2))
	defer d.Close()

	var first, second atomic.Int64
	d.Subscribe(models.EventSwipeCreated, func(ctx context.Context, e models.Event) error {
		first.Add(1)
		return nil
	})
	d.Subscribe(models.EventSwipeCreated, func(ctx context.Context, e models.Event) error {
		second.Add(1)
		return nil
	})
	d.Subscribe(models.EventMatchCreated, func(ctx context.Context, e models.Event) error {
		t.Error("wrong event type delivered")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), testEvent("e1")))
	d.Drain()

	assert.Equal(t, int64(1), first.Load())
	assert.Equal(t, int64(1), second.Load())
}

func TestDispatcherRedeliversUntilSuccess(t *testing.T) {
	d := NewDispatcher(WithWorkers(1), WithMaxAttempts(5))
	defer d.Close()

	var attempts atomic.Int64
	d.Subscribe(models.EventSwipeCreated, func(ctx context.Context, e models.Event) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), testEvent("e1")))
	d.Drain()

	assert.Equal(t, int64(3), attempts.Load())
}

func TestDispatcherDropsAfterMaxAttempts(t *testing.T) {
	d := NewDispatcher(WithWorkers(1), WithMaxAttempts(2))
	defer d.Close()

	var attempts atomic.Int64
	d.Subscribe(models.EventSwipeCreated, func(ctx context.Context, e models.Event) error {
		attempts.Add(1)
		return errors.New("permanent")
	})

	require.NoError(t, d.Publish(context.Background(), testEvent("e1")))
	d.Drain()

	assert.Equal(t, int64(2), attempts.Load())
}

func TestDispatcherHandlersRunIndependently(t *testing.T) {
	d := NewDispatcher(WithWorkers(4), WithMaxAttempts(1))
	defer d.Close()

	var succeeded atomic.Int64
	d.Subscribe(models.EventSwipeCreated, func(ctx context.Context, e models.Event) error {
		return errors.New("this handler always fails")
	})
	d.Subscribe(models.EventSwipeCreated, func(ctx context.Context, e models.Event) error {
		succeeded.Add(1)
		return nil
	})

	for i := 0; i < 10; i++ {
		require.NoError(t, d.Publish(context.Background(), testEvent("e")))
	}
	d.Drain()

	assert.Equal(t, int64(10), succeeded.Load(), "one failing handler must not starve the other")
}

func TestDispatcherDeliveryTimeout(t *testing.T) {
	d := NewDispatcher(WithWorkers(1), WithMaxAttempts(1), WithDeliveryTimeout(20*time.Millisecond))
	defer d.Close()

	var sawDeadline atomic.Bool
	d.Subscribe(models.EventSwipeCreated, func(ctx context.Context, e models.Event) error {
		select {
		case <-ctx.Done():
			sawDeadline.Store(true)
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	require.NoError(t, d.Publish(context.Background(), testEvent("e1")))
	d.Drain()

	assert.True(t, sawDeadline.Load())
}

func TestPublishingHandlerDoesNotStallPool(t *testing.T) {
	// A single worker runs a handler that fans out far more events than the
	// queue buffer holds. The handler's publishes must not block the worker
	// they run on, or the dispatcher would deadlock against itself.
	d := NewDispatcher(WithWorkers(1))
	defer d.Close()

	const fanout = 400
	var delivered atomic.Int64
	d.Subscribe(models.EventSwipeCreated, func(ctx context.Context, e models.Event) error {
		for i := 0; i < fanout; i++ {
			if err := d.Publish(ctx, models.Event{ID: "m", Type: models.EventMatchCreated}); err != nil {
				return err
			}
		}
		return nil
	})
	d.Subscribe(models.EventMatchCreated, func(ctx context.Context, e models.Event) error {
		delivered.Add(1)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), testEvent("e1")))

	drained := make(chan struct{})
	go func() {
		d.Drain()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(10 * time.Second):
		t.Fatal("dispatcher stalled draining fanned-out events")
	}

	assert.Equal(t, int64(fanout), delivered.Load())
}

func TestDrainWaitsForInFlightDeliveries(t *testing.T) {
	d := NewDispatcher(WithWorkers(2))
	defer d.Close()

	var mu sync.Mutex
	var done []string
	d.Subscribe(models.EventSwipeCreated, func(ctx context.Context, e models.Event) error {
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		done = append(done, e.ID)
		mu.Unlock()
		return nil
	})

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, d.Publish(context.Background(), testEvent(id)))
	}
	d.Drain()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, done)
}
