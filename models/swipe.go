package models

// Swipe directions
const (
	DirectionRight = "right"
	DirectionLeft  = "left"
)

// Swipe target types
const (
	TargetTypeUser    = "user"
	TargetTypeProject = "project"
)

// Swipe is a one-directional interest signal. Swipes are append-only and
// immutable; there is no update or delete path anywhere in the server.
type Swipe struct {
	PK         string `dynamodbav:"PK" json:"-"` // USER#<swiperId>
	SK         string `dynamodbav:"SK" json:"-"` // SWIPE#<targetId>#<paddedUnixNano>
	ID         string `dynamodbav:"id" json:"id"`
	SwiperID   string `dynamodbav:"swiper_id" json:"swiper_id"`
	TargetID   string `dynamodbav:"target_id" json:"target_id"`
	Direction  string `dynamodbav:"direction" json:"direction"`     // left, right
	TargetType string `dynamodbav:"target_type" json:"target_type"` // user, project
	CreatedAt  string `dynamodbav:"created_at" json:"created_at"`
}

// SwipesTable is the DynamoDB table name for swipes
const SwipesTable = "Swipes"
