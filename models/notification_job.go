package models

// NotificationJob statuses
const (
	JobStatusPending = "pending"
	JobStatusSent    = "sent"
	JobStatusFailed  = "failed"
)

// NotificationJob is one pending outbound push. Jobs are created only by the
// notification dispatcher (ids derived from the triggering event id, so
// replayed triggers converge on the same job) and mutated only by the push
// sender, which moves Status from pending to a terminal value at most once.
type NotificationJob struct {
	ID         string            `dynamodbav:"id" json:"id"`
	UserID     string            `dynamodbav:"userId" json:"userId"`
	PushToken  string            `dynamodbav:"pushToken" json:"pushToken"`
	Title      string            `dynamodbav:"title" json:"title"`
	Body       string            `dynamodbav:"body" json:"body"`
	Data       map[string]string `dynamodbav:"data,omitempty" json:"data,omitempty"`
	Status     string            `dynamodbav:"status" json:"status"` // pending, sent, failed
	CreatedAt  string            `dynamodbav:"createdAt" json:"createdAt"`
	SentAt     string            `dynamodbav:"sentAt,omitempty" json:"sentAt,omitempty"`
	FailedAt   string            `dynamodbav:"failedAt,omitempty" json:"failedAt,omitempty"`
	DeliveryID string            `dynamodbav:"deliveryId,omitempty" json:"deliveryId,omitempty"`
	Error      string            `dynamodbav:"error,omitempty" json:"error,omitempty"`
}

// NotificationJobsTable is the DynamoDB table name for notification jobs
const NotificationJobsTable = "NotificationJobs"
