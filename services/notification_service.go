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

	"golang.org/x/sync/errgroup"
)

// RealtimeNotifier pushes match events to connected clients. Delivery is best
// effort; the durable NotificationJob records are the source of truth.
type RealtimeNotifier interface {
	NotifyMatch(userID string, payload map[string]interface{})
}

// NotificationService composes notification jobs for the parties affected by
// a match or a right swipe. Job ids derive from the triggering event id, so a
// redelivered trigger converges on the jobs that already exist instead of
// duplicating them.
type NotificationService struct {
	Store    Store
	Profiles *UserProfileService
	Bus      EventPublisher
	Realtime RealtimeNotifier // optional
}

// HandleMatchCreated fans a match out to both parties as one atomic two-job
// batch: either both jobs appear or neither does. A party without a push token
// still gets a job; the send fails terminally later, which keeps the
// "exactly two jobs per match" invariant observable.
func (ns *NotificationService) HandleMatchCreated(ctx context.Context, event models.Event) error {
	match := event.Match
	if match == nil {
		return nil
	}

	var contributor, owner *models.UserProfile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contributor, err = ns.loadProfile(gctx, match.ContributorID)
		return err
	})
	g.Go(func() error {
		var err error
		owner, err = ns.loadProfile(gctx, match.ProjectOwnerID)
		return err
	})
	if err := g.Wait(); err != nil {
		// Transient lookup failure; leave it to redelivery.
		return err
	}

	jobs := []models.NotificationJob{
		ns.matchJob(event.ID, match, match.ContributorID, contributor, owner),
		ns.matchJob(event.ID, match, match.ProjectOwnerID, owner, contributor),
	}
	batch := make([]interface{}, 0, len(jobs))
	for _, job := range jobs {
		if err := policy.ValidateNotificationJob(job); err != nil {
			log.Printf("⚠️ Dropping malformed jobs for match %s: %v", match.ID, err)
			return nil
		}
		batch = append(batch, job)
	}

	err := ns.Store.TransactPutIfAbsent(ctx, models.NotificationJobsTable, batch, "id")
	if errors.Is(err, ErrConditionFailed) {
		// Replayed trigger; the batch was already committed.
		log.Printf("ℹ️ Jobs for match %s already exist, skipping", match.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create match notification jobs: %w", err)
	}
	metrics.NotificationJobsCreated.WithLabelValues("match").Add(float64(len(jobs)))
	log.Printf("🔔 Created %d notification jobs for match %s", len(jobs), match.ID)

	for _, job := range jobs {
		ns.publishJobCreated(ctx, job)
	}

	if ns.Realtime != nil {
		payload := map[string]interface{}{"matchId": match.ID, "projectId": match.ProjectID}
		ns.Realtime.NotifyMatch(match.ContributorID, payload)
		ns.Realtime.NotifyMatch(match.ProjectOwnerID, payload)
	}
	return nil
}

// HandleSwipeCreated emits a single "swipe-interest" job for the user target
// of a right swipe. Project swipes have no single recipient, so they produce
// no job. The job id is keyed to the swipe's event id, so redelivery is a
// no-op once the job exists.
func (ns *NotificationService) HandleSwipeCreated(ctx context.Context, event models.Event) error {
	swipe := event.Swipe
	if swipe == nil || swipe.Direction != models.DirectionRight || swipe.TargetID == swipe.SwiperID {
		return nil
	}
	if swipe.TargetType != models.TargetTypeUser {
		return nil
	}

	var target, swiper *models.UserProfile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		target, err = ns.loadProfile(gctx, swipe.TargetID)
		return err
	})
	g.Go(func() error {
		var err error
		swiper, err = ns.loadProfile(gctx, swipe.SwiperID)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	job := models.NotificationJob{
		ID:        JobIDFor(event.ID, swipe.TargetID),
		UserID:    swipe.TargetID,
		PushToken: pushTokenOf(target),
		Title:     "Someone is interested!",
		Body:      fmt.Sprintf("%s wants to collaborate with you.", displayNameOf(swiper, "A developer")),
		Data: map[string]string{
			"type":     "swipe_interest",
			"swipeId":  swipe.ID,
			"swiperId": swipe.SwiperID,
		},
		Status:    models.JobStatusPending,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := policy.ValidateNotificationJob(job); err != nil {
		log.Printf("⚠️ Dropping malformed interest job for swipe %s: %v", swipe.ID, err)
		return nil
	}

	err := ns.Store.PutItemIfAbsent(ctx, models.NotificationJobsTable, job, "id")
	if errors.Is(err, ErrConditionFailed) {
		log.Printf("ℹ️ Interest job for swipe %s already exists, skipping", swipe.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create interest job: %w", err)
	}
	metrics.NotificationJobsCreated.WithLabelValues("interest").Inc()
	log.Printf("🔔 Created interest job for %s (swipe %s)", swipe.TargetID, swipe.ID)

	ns.publishJobCreated(ctx, job)
	return nil
}

func (ns *NotificationService) matchJob(eventID string, match *models.Match, recipientID string, recipient, other *models.UserProfile) models.NotificationJob {
	return models.NotificationJob{
		ID:        JobIDFor(eventID, recipientID),
		UserID:    recipientID,
		PushToken: pushTokenOf(recipient),
		Title:     "It's a match! 🎉",
		Body:      fmt.Sprintf("You and %s want to work together. Say hi!", displayNameOf(other, "your match")),
		Data: map[string]string{
			"type":    "match",
			"matchId": match.ID,
		},
		Status:    models.JobStatusPending,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

func (ns *NotificationService) publishJobCreated(ctx context.Context, job models.NotificationJob) {
	event := models.Event{
		ID:         job.ID,
		Type:       models.EventJobCreated,
		Job:        &job,
		OccurredAt: job.CreatedAt,
	}
	if err := ns.Bus.Publish(ctx, event); err != nil {
		log.Printf("⚠️ Failed to publish job event %s: %v", job.ID, err)
	}
}

// loadProfile treats a missing profile as "recipient without token" but
// propagates infra failures so the trigger gets redelivered.
func (ns *NotificationService) loadProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := ns.Profiles.GetProfile(ctx, userID)
	if errors.Is(err, ErrItemNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", userID, err)
	}
	return profile, nil
}

func displayNameOf(profile *models.UserProfile, fallback string) string {
	if profile == nil || profile.DisplayName == "" {
		return fallback
	}
	return profile.DisplayName
}

func pushTokenOf(profile *models.UserProfile) string {
	if profile == nil {
		return ""
	}
	return profile.PushToken
}
