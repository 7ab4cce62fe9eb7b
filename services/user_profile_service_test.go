package services

import (
	"context"
	"errors"
	"testing"

	"gitalong_server/models"
	"gitalong_server/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSyncer struct {
	synced []string
	err    error
}

func (r *recordingSyncer) SyncProfile(ctx context.Context, profile models.UserProfile) error {
	r.synced = append(r.synced, profile.UserID)
	return r.err
}

func TestPutProfileWritesAndSyncs(t *testing.T) {
	store := NewMemoryStore()
	syncer := &recordingSyncer{}
	svc := &UserProfileService{Store: store, Engine: syncer}
	ctx := context.Background()

	profile := models.UserProfile{
		UserID: "alice", DisplayName: "Alice", Role: models.RoleContributor,
		PushToken: "tok-alice", EmailVerified: true,
	}
	require.NoError(t, svc.PutProfile(ctx, policy.AuthContext{UserID: "alice", EmailVerified: true}, profile))
	assert.Equal(t, []string{"alice"}, syncer.synced)

	loaded, err := svc.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", loaded.DisplayName)
	assert.Equal(t, "tok-alice", loaded.PushToken)
}

func TestPutProfileSyncFailureDoesNotFailWrite(t *testing.T) {
	store := NewMemoryStore()
	syncer := &recordingSyncer{err: errors.New("engine down")}
	svc := &UserProfileService{Store: store, Engine: syncer}
	ctx := context.Background()

	profile := models.UserProfile{
		UserID: "alice", DisplayName: "Alice", Role: models.RoleContributor, EmailVerified: true,
	}
	require.NoError(t, svc.PutProfile(ctx, policy.AuthContext{UserID: "alice", EmailVerified: true}, profile))

	_, err := svc.GetProfile(ctx, "alice")
	require.NoError(t, err)
}

func TestPutProfileRejectsForeignOwner(t *testing.T) {
	svc := &UserProfileService{Store: NewMemoryStore()}
	profile := models.UserProfile{
		UserID: "bob", DisplayName: "Bob", Role: models.RoleContributor,
	}
	err := svc.PutProfile(context.Background(), policy.AuthContext{UserID: "alice", EmailVerified: true}, profile)
	require.Error(t, err)
	assert.True(t, policy.IsValidationError(err))
}

func TestGetProfileMissing(t *testing.T) {
	svc := &UserProfileService{Store: NewMemoryStore()}
	_, err := svc.GetProfile(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrItemNotFound)
}
