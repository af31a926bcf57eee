package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studysync/studysync-api/internal/dto"
	"github.com/studysync/studysync-api/internal/models"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
)

type mockGroupRepo struct {
	group       *models.Group
	members     map[string]bool
	memberCount int
	added       []string
	removed     []string
	deleted     bool
}

func (m *mockGroupRepo) Create(ctx context.Context, group *models.Group) error {
	group.ID = "g1"
	m.group = group
	return nil
}

func (m *mockGroupRepo) FindByID(ctx context.Context, id string) (*models.Group, error) {
	if m.group == nil {
		return nil, sql.ErrNoRows
	}
	return m.group, nil
}

func (m *mockGroupRepo) Update(ctx context.Context, group *models.Group) error {
	m.group = group
	return nil
}

func (m *mockGroupRepo) Delete(ctx context.Context, id string) error {
	m.deleted = true
	return nil
}

func (m *mockGroupRepo) List(ctx context.Context, filter models.GroupFilter) ([]models.Group, int, error) {
	if m.group == nil {
		return nil, 0, nil
	}
	return []models.Group{*m.group}, 1, nil
}

func (m *mockGroupRepo) AddMember(ctx context.Context, groupID, userID string) error {
	m.added = append(m.added, userID)
	return nil
}

func (m *mockGroupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	m.removed = append(m.removed, userID)
	return nil
}

func (m *mockGroupRepo) ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	members := make([]models.GroupMember, 0, len(m.members))
	for id := range m.members {
		members = append(members, models.GroupMember{GroupID: groupID, UserID: id})
	}
	return members, nil
}

func (m *mockGroupRepo) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	return m.members[userID], nil
}

func (m *mockGroupRepo) MemberCount(ctx context.Context, groupID string) (int, error) {
	return m.memberCount, nil
}

func TestGroupCreateAppliesDefaultCapacity(t *testing.T) {
	repo := &mockGroupRepo{}
	svc := NewGroupService(repo, nil, nil, nil, zap.NewNop())

	group, err := svc.Create(context.Background(), "owner", dto.CreateGroupRequest{Name: "Algorithms", Course: "CS 301"})
	require.NoError(t, err)
	assert.Equal(t, "owner", group.OwnerID)
	assert.Equal(t, defaultMaxMembers, group.MaxMembers)
}

func TestGroupJoinRejectsWhenFull(t *testing.T) {
	repo := &mockGroupRepo{
		group:       &models.Group{ID: "g1", OwnerID: "owner", MaxMembers: 2},
		members:     map[string]bool{"owner": true, "u2": true},
		memberCount: 2,
	}
	svc := NewGroupService(repo, nil, nil, nil, zap.NewNop())

	err := svc.Join(context.Background(), "g1", "u3")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.added)
}

func TestGroupJoinRejectsDuplicate(t *testing.T) {
	repo := &mockGroupRepo{
		group:       &models.Group{ID: "g1", OwnerID: "owner", MaxMembers: 5},
		members:     map[string]bool{"owner": true, "u2": true},
		memberCount: 2,
	}
	svc := NewGroupService(repo, nil, nil, nil, zap.NewNop())

	err := svc.Join(context.Background(), "g1", "u2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestGroupOwnerCannotLeave(t *testing.T) {
	repo := &mockGroupRepo{
		group:   &models.Group{ID: "g1", OwnerID: "owner", MaxMembers: 5},
		members: map[string]bool{"owner": true},
	}
	svc := NewGroupService(repo, nil, nil, nil, zap.NewNop())

	err := svc.Leave(context.Background(), "g1", "owner")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.removed)
}

func TestGroupUpdateOnlyOwner(t *testing.T) {
	repo := &mockGroupRepo{group: &models.Group{ID: "g1", OwnerID: "owner", MaxMembers: 5}}
	svc := NewGroupService(repo, nil, nil, nil, zap.NewNop())

	name := "New name"
	_, err := svc.Update(context.Background(), "intruder", "g1", dto.UpdateGroupRequest{Name: &name})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestGroupUpdateRejectsCapacityBelowRoster(t *testing.T) {
	repo := &mockGroupRepo{
		group:       &models.Group{ID: "g1", OwnerID: "owner", MaxMembers: 5},
		memberCount: 4,
	}
	svc := NewGroupService(repo, nil, nil, nil, zap.NewNop())

	smaller := 3
	_, err := svc.Update(context.Background(), "owner", "g1", dto.UpdateGroupRequest{MaxMembers: &smaller})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGroupRequireMember(t *testing.T) {
	repo := &mockGroupRepo{
		group:   &models.Group{ID: "g1", OwnerID: "owner"},
		members: map[string]bool{"owner": true},
	}
	svc := NewGroupService(repo, nil, nil, nil, zap.NewNop())

	require.NoError(t, svc.RequireMember(context.Background(), "g1", "owner"))

	err := svc.RequireMember(context.Background(), "g1", "stranger")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

type mockChatPurger struct {
	purged []string
}

func (m *mockChatPurger) DeleteByGroup(ctx context.Context, groupID string) error {
	m.purged = append(m.purged, groupID)
	return nil
}

func TestGroupDeletePurgesChatHistory(t *testing.T) {
	repo := &mockGroupRepo{group: &models.Group{ID: "g1", OwnerID: "owner"}}
	chat := &mockChatPurger{}
	svc := NewGroupService(repo, chat, nil, nil, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "owner", "g1"))
	assert.True(t, repo.deleted)
	assert.Equal(t, []string{"g1"}, chat.purged)
}

func TestGroupJoinInvalidatesAvailabilityCache(t *testing.T) {
	cacheRepo := &memoryCacheRepo{values: map[string][]byte{"availability:g1:x": []byte("{}")}}
	cache := NewCacheService(cacheRepo, nil, 0, zap.NewNop(), true)
	repo := &mockGroupRepo{
		group:   &models.Group{ID: "g1", OwnerID: "owner", MaxMembers: 5},
		members: map[string]bool{"owner": true},
	}
	svc := NewGroupService(repo, nil, cache, nil, zap.NewNop())

	require.NoError(t, svc.Join(context.Background(), "g1", "u2"))
	assert.Empty(t, cacheRepo.values)
}
