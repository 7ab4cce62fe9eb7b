package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gitalong_server/metrics"
	"gitalong_server/models"
	"gitalong_server/policy"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MatchService turns two one-directional right swipes into exactly one Match.
// HandleSwipeCreated runs under at-least-once delivery: it may fire any number
// of times for the same swipe and concurrently for both sides of a pair.
// Correctness rests entirely on the deterministic match id plus the store's
// create-if-absent write, never on delivery guarantees.
type MatchService struct {
	Store    Store
	Swipes   *SwipeService
	Profiles *UserProfileService
	Bus      EventPublisher
}

// HandleSwipeCreated checks for a reciprocal right swipe and creates the Match
// record idempotently. Transient lookup failures are returned so the bus
// redelivers; the Match itself is a single atomic write or nothing.
func (s *MatchService) HandleSwipeCreated(ctx context.Context, event models.Event) error {
	swipe := event.Swipe
	if swipe == nil || swipe.Direction != models.DirectionRight {
		return nil
	}

	// Swipes are append-only; only the newest signal per (swiper, target) pair
	// counts. A right-then-left burst resolves to "not interested" here even if
	// this handler runs after both records landed.
	latest, err := s.Swipes.LatestSwipe(ctx, swipe.SwiperID, swipe.TargetID)
	if err != nil {
		return err
	}
	if latest == nil || latest.Direction != models.DirectionRight {
		log.Printf("ℹ️ Swipe %s superseded by a newer signal, skipping", swipe.ID)
		return nil
	}

	reciprocal, err := s.Swipes.LatestSwipe(ctx, swipe.TargetID, swipe.SwiperID)
	if err != nil {
		return err
	}
	if reciprocal == nil || reciprocal.Direction != models.DirectionRight {
		// No mutual interest yet; the pair stays pending.
		return nil
	}

	match := s.buildMatch(ctx, swipe.SwiperID, swipe.TargetID)

	err = s.Store.PutItemIfAbsent(ctx, models.MatchesTable, match, "id")
	if errors.Is(err, ErrConditionFailed) {
		// The concurrent invocation for the other side already won the race.
		// That is success, not failure.
		log.Printf("ℹ️ Match %s already exists, race resolved", match.ID)
		metrics.MatchRacesResolved.Inc()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}

	metrics.MatchesCreated.Inc()
	log.Printf("🎉 Match created: %s ❤️ %s (%s)", match.ContributorID, match.ProjectOwnerID, match.ID)

	matchEvent := models.Event{
		ID:         match.ID,
		Type:       models.EventMatchCreated,
		Match:      &match,
		OccurredAt: match.CreatedAt,
	}
	if err := s.Bus.Publish(ctx, matchEvent); err != nil {
		log.Printf("⚠️ Failed to publish match event %s: %v", match.ID, err)
	}
	return nil
}

// buildMatch assigns the contributor and project-owner slots. A maintainer
// profile takes the owner slot and contributes the project id; when neither
// (or both) side is a maintainer, sorted-pair order keeps the record
// deterministic regardless of which side's handler builds it.
func (s *MatchService) buildMatch(ctx context.Context, userA, userB string) models.Match {
	lo, hi := SortPair(userA, userB)
	contributorID, ownerID := lo, hi

	profileLo := s.lookupProfile(ctx, lo)
	profileHi := s.lookupProfile(ctx, hi)

	var projectID string
	if profileLo != nil && profileLo.Role == models.RoleMaintainer {
		contributorID, ownerID = hi, lo
		projectID = profileLo.ProjectID
	} else if profileHi != nil {
		projectID = profileHi.ProjectID
	}

	return models.Match{
		ID:             MatchIDFor(userA, userB),
		ContributorID:  contributorID,
		ProjectOwnerID: ownerID,
		ProjectID:      projectID,
		Status:         models.MatchStatusActive,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	}
}

func (s *MatchService) lookupProfile(ctx context.Context, userID string) *models.UserProfile {
	profile, err := s.Profiles.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrItemNotFound) {
			log.Printf("⚠️ Failed to load profile %s: %v", userID, err)
		}
		return nil
	}
	return profile
}

// GetMatch retrieves one match by id.
func (s *MatchService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	key := map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: matchID},
	}
	item, err := s.Store.GetItem(ctx, models.MatchesTable, key)
	if err != nil {
		return nil, err
	}

	var match models.Match
	if err := attributevalue.UnmarshalMap(item, &match); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}
	return &match, nil
}

// GetMatchesByUser returns every match the user participates in.
func (s *MatchService) GetMatchesByUser(ctx context.Context, userID string) ([]models.Match, error) {
	items, err := s.Store.Scan(ctx, models.MatchesTable)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch matches: %w", err)
	}

	matches := []models.Match{}
	for _, item := range items {
		var match models.Match
		if err := attributevalue.UnmarshalMap(item, &match); err != nil {
			log.Printf("⚠️ Failed to unmarshal match: %v", err)
			continue
		}
		if match.HasParticipant(userID) {
			matches = append(matches, match)
		}
	}
	return matches, nil
}

// UpdateMatchStatus applies a status-only mutation on behalf of a participant.
// The policy layer rejects any change to identity or creation fields; the
// store condition turns concurrent status updates into a compare-and-set.
func (s *MatchService) UpdateMatchStatus(ctx context.Context, auth policy.AuthContext, matchID, newStatus string) (*models.Match, error) {
	current, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.Status = newStatus
	if err := policy.ValidateMatchStatusUpdate(auth, *current, updated); err != nil {
		return nil, err
	}

	key := map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: matchID},
	}
	err = s.Store.UpdateFields(ctx, models.MatchesTable, key,
		map[string]types.AttributeValue{
			"status": &types.AttributeValueMemberS{Value: newStatus},
		},
		map[string]types.AttributeValue{
			"status": &types.AttributeValueMemberS{Value: current.Status},
		},
	)
	if errors.Is(err, ErrConditionFailed) {
		return nil, fmt.Errorf("match %s was modified concurrently: %w", matchID, err)
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
