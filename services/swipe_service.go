package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"gitalong_server/metrics"
	"gitalong_server/models"
	"gitalong_server/policy"
	"gitalong_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/google/uuid"
)

// SwipeService durably records one-directional interest signals. It creates
// nothing but the Swipe itself; match detection and notification fan-out are
// downstream event handlers decoupled through the bus.
type SwipeService struct {
	Store Store
	Bus   EventPublisher
}

// EventPublisher is the publishing half of the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

func swipePK(swiperID string) string {
	return "USER#" + swiperID
}

func swipeSKPrefix(targetID string) string {
	return "SWIPE#" + targetID + "#"
}

// RecordSwipe validates and persists a swipe, then publishes its creation
// event. The swipe is immutable from here on: no update or delete path exists.
func (s *SwipeService) RecordSwipe(ctx context.Context, auth policy.AuthContext, swiperID, targetID, direction, targetType string) (*models.Swipe, error) {
	now := time.Now().UTC()
	swipe := models.Swipe{
		ID:         uuid.NewString(),
		SwiperID:   swiperID,
		TargetID:   targetID,
		Direction:  direction,
		TargetType: targetType,
		CreatedAt:  now.Format(time.RFC3339Nano),
	}

	if err := policy.ValidateSwipeCreate(auth, swipe); err != nil {
		return nil, err
	}

	// The sort key embeds a zero-padded creation instant so "latest swipe per
	// (swiper, target) pair" is a one-item descending prefix query.
	swipe.PK = swipePK(swiperID)
	swipe.SK = fmt.Sprintf("%s%020d", swipeSKPrefix(targetID), now.UnixNano())

	if err := s.Store.PutItem(ctx, models.SwipesTable, swipe); err != nil {
		return nil, fmt.Errorf("failed to record swipe: %w", err)
	}
	metrics.SwipesRecorded.WithLabelValues(direction).Inc()
	log.Printf("👆 Swipe recorded: %s -> %s (%s)", swiperID, targetID, direction)

	// The swipe is durable at this point; downstream processing failures never
	// undo it. Event id = swipe id keeps redeliveries deterministic.
	event := models.Event{
		ID:         swipe.ID,
		Type:       models.EventSwipeCreated,
		Swipe:      &swipe,
		OccurredAt: swipe.CreatedAt,
	}
	if err := s.Bus.Publish(ctx, event); err != nil {
		log.Printf("⚠️ Failed to publish swipe event %s: %v", swipe.ID, err)
	}

	return &swipe, nil
}

// LatestSwipe returns the newest swipe from swiperID toward targetID, or nil
// if none exists. Swipes are append-only, so "the current signal" for a pair
// is always the newest record.
func (s *SwipeService) LatestSwipe(ctx context.Context, swiperID, targetID string) (*models.Swipe, error) {
	items, err := s.Store.QueryByPrefix(ctx, models.SwipesTable, "PK", swipePK(swiperID), "SK", swipeSKPrefix(targetID), 1, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest swipe: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	var swipe models.Swipe
	if err := attributevalue.UnmarshalMap(items[0], &swipe); err != nil {
		return nil, fmt.Errorf("failed to unmarshal swipe: %w", err)
	}
	return &swipe, nil
}

// SwipedTargetIDs returns the distinct targets a user has already swiped on.
// This is the exclusion set the recommendation provider feeds to the scorer.
func (s *SwipeService) SwipedTargetIDs(ctx context.Context, swiperID string) ([]string, error) {
	items, err := s.Store.QueryByPK(ctx, models.SwipesTable, "PK", swipePK(swiperID), 1000)
	if err != nil {
		return nil, fmt.Errorf("failed to query swipes: %w", err)
	}

	seen := map[string]struct{}{}
	var targets []string
	for _, item := range items {
		target := utils.ExtractString(item, "target_id")
		if target == "" {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		targets = append(targets, target)
	}
	return targets, nil
}
