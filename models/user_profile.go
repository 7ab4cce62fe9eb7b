package models

// Profile roles
const (
	RoleContributor = "contributor"
	RoleMaintainer  = "maintainer"
)

// UserProfile defines the structure for user profiles
type UserProfile struct {
	UserID        string   `dynamodbav:"userId" json:"userId"`
	DisplayName   string   `dynamodbav:"displayName" json:"displayName"`
	Role          string   `dynamodbav:"role" json:"role"` // contributor, maintainer
	Bio           string   `dynamodbav:"bio,omitempty" json:"bio,omitempty"`
	GithubHandle  string   `dynamodbav:"githubHandle,omitempty" json:"githubHandle,omitempty"`
	AvatarURL     string   `dynamodbav:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	TechStack     []string `dynamodbav:"techStack,omitempty" json:"techStack,omitempty"`
	PushToken     string   `dynamodbav:"pushToken,omitempty" json:"pushToken,omitempty"`
	EmailVerified bool     `dynamodbav:"emailVerified" json:"emailVerified"`
	ProjectID     string   `dynamodbav:"projectId,omitempty" json:"projectId,omitempty"` // set for maintainers
}

// UserProfilesTable is the DynamoDB table name for user profiles
const UserProfilesTable = "UserProfiles"
