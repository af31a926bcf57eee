package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studysync/studysync-api/internal/dto"
	"github.com/studysync/studysync-api/internal/models"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
)

const defaultMaxMembers = 10

type groupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	FindByID(ctx context.Context, id string) (*models.Group, error)
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.GroupFilter) ([]models.Group, int, error)
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	MemberCount(ctx context.Context, groupID string) (int, error)
}

type groupChatPurger interface {
	DeleteByGroup(ctx context.Context, groupID string) error
}

// GroupService manages study groups and their rosters.
type GroupService struct {
	repo      groupRepository
	chat      groupChatPurger
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs a GroupService.
func NewGroupService(repo groupRepository, chat groupChatPurger, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &GroupService{repo: repo, chat: chat, cache: cache, validator: validate, logger: logger}
}

// Create registers a group owned by the caller and enrolls them.
func (s *GroupService) Create(ctx context.Context, ownerID string, req dto.CreateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}

	maxMembers := req.MaxMembers
	if maxMembers <= 0 {
		maxMembers = defaultMaxMembers
	}

	group := &models.Group{
		Name:        req.Name,
		Description: req.Description,
		Course:      req.Course,
		OwnerID:     ownerID,
		MaxMembers:  maxMembers,
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}

	s.logger.Info("group created", zap.String("group_id", group.ID), zap.String("owner_id", ownerID))
	return group, nil
}

// Get returns a group by id.
func (s *GroupService) Get(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	return group, nil
}

// Update mutates metadata. Only the owner may update.
func (s *GroupService) Update(ctx context.Context, callerID, groupID string, req dto.UpdateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}

	group, err := s.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID != callerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owner may update the group")
	}

	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	if req.Course != nil {
		group.Course = *req.Course
	}
	if req.MaxMembers != nil {
		count, err := s.repo.MemberCount(ctx, groupID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count members")
		}
		if *req.MaxMembers < count {
			return nil, appErrors.Clone(appErrors.ErrValidation, "max members below current roster size")
		}
		group.MaxMembers = *req.MaxMembers
	}

	if err := s.repo.Update(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update group")
	}
	s.invalidateAvailability(ctx, groupID)
	return group, nil
}

// Delete removes a group. Only the owner may delete.
func (s *GroupService) Delete(ctx context.Context, callerID, groupID string) error {
	group, err := s.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID != callerID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the owner may delete the group")
	}
	if err := s.repo.Delete(ctx, groupID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete group")
	}
	if s.chat != nil {
		if err := s.chat.DeleteByGroup(ctx, groupID); err != nil {
			s.logger.Warn("failed to purge group chat history", zap.String("group_id", groupID), zap.Error(err))
		}
	}
	s.invalidateAvailability(ctx, groupID)
	return nil
}

// List returns groups matching the query.
func (s *GroupService) List(ctx context.Context, callerID string, query dto.GroupQuery) ([]models.Group, *models.Pagination, error) {
	filter := models.GroupFilter{
		Course:   query.Course,
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.Mine {
		filter.MemberID = callerID
	}

	groups, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return groups, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Join enrolls the caller in a group.
func (s *GroupService) Join(ctx context.Context, groupID, userID string) error {
	group, err := s.Get(ctx, groupID)
	if err != nil {
		return err
	}

	isMember, err := s.repo.IsMember(ctx, groupID, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
	}
	if isMember {
		return appErrors.Clone(appErrors.ErrConflict, "already a member")
	}

	count, err := s.repo.MemberCount(ctx, groupID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count members")
	}
	if group.MaxMembers > 0 && count >= group.MaxMembers {
		return appErrors.Clone(appErrors.ErrConflict, "group is full")
	}

	if err := s.repo.AddMember(ctx, groupID, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add member")
	}
	s.invalidateAvailability(ctx, groupID)
	return nil
}

// Leave removes the caller from the roster. The owner cannot leave their own
// group; they delete it instead.
func (s *GroupService) Leave(ctx context.Context, groupID, userID string) error {
	group, err := s.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID == userID {
		return appErrors.Clone(appErrors.ErrConflict, "owner cannot leave their own group")
	}

	isMember, err := s.repo.IsMember(ctx, groupID, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
	}
	if !isMember {
		return appErrors.Clone(appErrors.ErrNotFound, "not a member of this group")
	}

	if err := s.repo.RemoveMember(ctx, groupID, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove member")
	}
	s.invalidateAvailability(ctx, groupID)
	return nil
}

// Members returns the roster.
func (s *GroupService) Members(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	return members, nil
}

// RequireMember returns ErrForbidden unless the user belongs to the group.
func (s *GroupService) RequireMember(ctx context.Context, groupID, userID string) error {
	isMember, err := s.repo.IsMember(ctx, groupID, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
	}
	if !isMember {
		return appErrors.Clone(appErrors.ErrForbidden, "not a member of this group")
	}
	return nil
}

// Roster changes invalidate cached availability results for the group.
func (s *GroupService) invalidateAvailability(ctx context.Context, groupID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "availability:"+groupID+":*"); err != nil {
		s.logger.Warn("failed to invalidate availability cache", zap.String("group_id", groupID), zap.Error(err))
	}
}
