package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gitalong_server/metrics"
	"gitalong_server/models"
	"gitalong_server/utils"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// PushService delivers pending notification jobs through the push gateway and
// records the terminal outcome. A job's status moves from pending to sent or
// failed at most once; the conditional update enforces that even when the
// trigger is redelivered or two workers race on the same job.
type PushService struct {
	Store   Store
	Gateway PushGateway
}

// HandleJobCreated sends one notification job. Transport-level failures are
// returned so the bus redelivers while the job stays pending; gateway verdicts
// and missing tokens are terminal.
func (ps *PushService) HandleJobCreated(ctx context.Context, event models.Event) error {
	job := event.Job
	if job == nil {
		return nil
	}

	// Re-read the stored job: on redelivery it may already be terminal.
	key := map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: job.ID},
	}
	stored, err := ps.Store.GetItem(ctx, models.NotificationJobsTable, key)
	if errors.Is(err, ErrItemNotFound) {
		log.Printf("⚠️ Job %s not found, skipping", job.ID)
		return nil
	}
	if err != nil {
		return err
	}
	if utils.ExtractString(stored, "status") != models.JobStatusPending {
		return nil
	}

	if job.PushToken == "" {
		return ps.markFailed(ctx, job.ID, "recipient has no push token")
	}

	deliveryID, err := ps.Gateway.Send(ctx, job.PushToken, job.Title, job.Body, job.Data)
	if err != nil {
		var verdict *GatewayError
		if errors.As(err, &verdict) && verdict.Terminal {
			log.Printf("❌ Push to %s failed terminally: %v", job.UserID, err)
			return ps.markFailed(ctx, job.ID, verdict.Error())
		}
		// No terminal verdict was reached; leave the job pending and let the
		// platform redeliver the trigger.
		return fmt.Errorf("push delivery for job %s: %w", job.ID, err)
	}

	log.Printf("✅ Push sent to %s (delivery %s)", job.UserID, deliveryID)
	return ps.markSent(ctx, job.ID, deliveryID)
}

func (ps *PushService) markSent(ctx context.Context, jobID, deliveryID string) error {
	err := ps.transition(ctx, jobID, map[string]types.AttributeValue{
		"status":     &types.AttributeValueMemberS{Value: models.JobStatusSent},
		"sentAt":     &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		"deliveryId": &types.AttributeValueMemberS{Value: deliveryID},
	})
	if err == nil {
		metrics.PushDeliveries.WithLabelValues(models.JobStatusSent).Inc()
	}
	return err
}

func (ps *PushService) markFailed(ctx context.Context, jobID, reason string) error {
	err := ps.transition(ctx, jobID, map[string]types.AttributeValue{
		"status":   &types.AttributeValueMemberS{Value: models.JobStatusFailed},
		"failedAt": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		"error":    &types.AttributeValueMemberS{Value: reason},
	})
	if err == nil {
		metrics.PushDeliveries.WithLabelValues(models.JobStatusFailed).Inc()
	}
	return err
}

// transition applies the one allowed status change, conditioned on the job
// still being pending. Losing that condition means another invocation already
// finished the job, which is a no-op here.
func (ps *PushService) transition(ctx context.Context, jobID string, set map[string]types.AttributeValue) error {
	key := map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: jobID},
	}
	err := ps.Store.UpdateFields(ctx, models.NotificationJobsTable, key, set,
		map[string]types.AttributeValue{
			"status": &types.AttributeValueMemberS{Value: models.JobStatusPending},
		},
	)
	if errors.Is(err, ErrConditionFailed) {
		log.Printf("ℹ️ Job %s already terminal, skipping", jobID)
		return nil
	}
	return err
}
