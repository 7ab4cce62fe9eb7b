package models

// Match statuses
const (
	MatchStatusActive   = "active"
	MatchStatusArchived = "archived"
	MatchStatusBlocked  = "blocked"
)

// Match is the bidirectional relationship created once both sides have swiped
// right. Its id is a deterministic function of the unordered user pair, so at
// most one Match can ever exist for a pair. Only the match detector creates
// these; clients may only change Status (and the message bookkeeping fields).
type Match struct {
	ID             string `dynamodbav:"id" json:"id"`
	ContributorID  string `dynamodbav:"contributor_id" json:"contributor_id"`
	ProjectOwnerID string `dynamodbav:"project_owner_id" json:"project_owner_id"`
	ProjectID      string `dynamodbav:"project_id" json:"project_id"`
	Status         string `dynamodbav:"status" json:"status"` // active, archived, blocked
	CreatedAt      string `dynamodbav:"created_at" json:"created_at"`
	LastMessageAt  string `dynamodbav:"last_message_at,omitempty" json:"last_message_at,omitempty"`
	MessageCount   int    `dynamodbav:"message_count,omitempty" json:"message_count,omitempty"`
}

// Participants returns both user ids of the match.
func (m Match) Participants() []string {
	return []string{m.ContributorID, m.ProjectOwnerID}
}

// HasParticipant reports whether userID is one of the two matched parties.
func (m Match) HasParticipant(userID string) bool {
	return userID == m.ContributorID || userID == m.ProjectOwnerID
}

// MatchesTable is the DynamoDB table name for matches
const MatchesTable = "Matches"
