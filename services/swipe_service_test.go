package services

import (
	"context"
	"sync"
	"testing"

	"gitalong_server/models"
	"gitalong_server/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturingBus records published events for assertions.
type capturingBus struct {
	mu     sync.Mutex
	events []models.Event
}

func (b *capturingBus) Publish(ctx context.Context, event models.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *capturingBus) byType(eventType string) []models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Event
	for _, e := range b.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func TestRecordSwipePersistsAndPublishes(t *testing.T) {
	store := NewMemoryStore()
	bus := &capturingBus{}
	svc := &SwipeService{Store: store, Bus: bus}
	ctx := context.Background()

	swipe, err := svc.RecordSwipe(ctx, policy.AuthContext{UserID: "alice", EmailVerified: true},
		"alice", "bob", models.DirectionRight, models.TargetTypeUser)
	require.NoError(t, err)
	require.NotNil(t, swipe)
	assert.NotEmpty(t, swipe.ID)
	assert.Equal(t, "USER#alice", swipe.PK)

	events := bus.byType(models.EventSwipeCreated)
	require.Len(t, events, 1)
	assert.Equal(t, swipe.ID, events[0].ID)
	require.NotNil(t, events[0].Swipe)
	assert.Equal(t, "bob", events[0].Swipe.TargetID)

	latest, err := svc.LatestSwipe(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, swipe.ID, latest.ID)
}

func TestRecordSwipeRejectsInvalid(t *testing.T) {
	store := NewMemoryStore()
	bus := &capturingBus{}
	svc := &SwipeService{Store: store, Bus: bus}
	ctx := context.Background()

	// Self swipe never reaches the store or the bus.
	_, err := svc.RecordSwipe(ctx, policy.AuthContext{UserID: "alice", EmailVerified: true},
		"alice", "alice", models.DirectionRight, models.TargetTypeUser)
	require.Error(t, err)
	assert.True(t, policy.IsValidationError(err))
	assert.Empty(t, bus.events)

	_, err = svc.RecordSwipe(ctx, policy.AuthContext{UserID: "alice"},
		"alice", "bob", models.DirectionRight, models.TargetTypeUser)
	require.Error(t, err)
	assert.True(t, policy.IsValidationError(err))
}

func TestLatestSwipeReturnsNewestSignal(t *testing.T) {
	store := NewMemoryStore()
	svc := &SwipeService{Store: store, Bus: &capturingBus{}}
	ctx := context.Background()
	auth := policy.AuthContext{UserID: "alice", EmailVerified: true}

	_, err := svc.RecordSwipe(ctx, auth, "alice", "bob", models.DirectionRight, models.TargetTypeUser)
	require.NoError(t, err)
	_, err = svc.RecordSwipe(ctx, auth, "alice", "bob", models.DirectionLeft, models.TargetTypeUser)
	require.NoError(t, err)

	latest, err := svc.LatestSwipe(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, models.DirectionLeft, latest.Direction)

	// No record at all for the reverse direction.
	reverse, err := svc.LatestSwipe(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Nil(t, reverse)
}

func TestSwipedTargetIDsDeduplicates(t *testing.T) {
	store := NewMemoryStore()
	svc := &SwipeService{Store: store, Bus: &capturingBus{}}
	ctx := context.Background()
	auth := policy.AuthContext{UserID: "alice", EmailVerified: true}

	for _, target := range []string{"bob", "bob", "carol"} {
		_, err := svc.RecordSwipe(ctx, auth, "alice", target, models.DirectionRight, models.TargetTypeUser)
		require.NoError(t, err)
	}

	targets, err := svc.SwipedTargetIDs(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob", "carol"}, targets)
}
