package services

import (
	"context"
	"fmt"
	"log"

	"gitalong_server/models"
	"gitalong_server/policy"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ProfileSyncer pushes profile updates to the external matching engine so its
// scoring inputs stay current. Sync failures never fail the profile write.
type ProfileSyncer interface {
	SyncProfile(ctx context.Context, profile models.UserProfile) error
}

// UserProfileService manages profile records. The pipeline reads profiles for
// display names, push tokens, roles and project ids during fan-out.
type UserProfileService struct {
	Store  Store
	Engine ProfileSyncer // optional
}

// PutProfile validates and writes a profile owned by the caller.
func (s *UserProfileService) PutProfile(ctx context.Context, auth policy.AuthContext, profile models.UserProfile) error {
	if err := policy.ValidateProfileWrite(auth, profile); err != nil {
		return err
	}

	if err := s.Store.PutItem(ctx, models.UserProfilesTable, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	log.Printf("📝 Profile saved for %s", profile.UserID)

	if s.Engine != nil {
		if err := s.Engine.SyncProfile(ctx, profile); err != nil {
			log.Printf("⚠️ Failed to sync profile %s to matching engine: %v", profile.UserID, err)
		}
	}
	return nil
}

// GetProfile retrieves a profile by user id; ErrItemNotFound if absent.
func (s *UserProfileService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
	item, err := s.Store.GetItem(ctx, models.UserProfilesTable, key)
	if err != nil {
		return nil, err
	}

	var profile models.UserProfile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}
