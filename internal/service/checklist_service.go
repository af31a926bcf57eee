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

type checklistRepository interface {
	Create(ctx context.Context, list *models.Checklist) error
	FindByID(ctx context.Context, id string) (*models.Checklist, error)
	ListByUser(ctx context.Context, userID string) ([]models.Checklist, error)
	Delete(ctx context.Context, id string) error
	AddItem(ctx context.Context, item *models.ChecklistItem) error
	ListItems(ctx context.Context, checklistID string) ([]models.ChecklistItem, error)
	SetItemDone(ctx context.Context, itemID string, done bool) error
	DeleteItem(ctx context.Context, itemID string) error
}

// ChecklistService manages study checklists.
type ChecklistService struct {
	repo      checklistRepository
	groups    chatMembershipChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChecklistService constructs a ChecklistService.
func NewChecklistService(repo checklistRepository, groups chatMembershipChecker, validate *validator.Validate, logger *zap.Logger) *ChecklistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ChecklistService{repo: repo, groups: groups, validator: validate, logger: logger}
}

// Create adds a checklist for the caller, optionally shared with a group the
// caller belongs to.
func (s *ChecklistService) Create(ctx context.Context, userID string, req dto.CreateChecklistRequest) (*models.Checklist, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid checklist payload")
	}
	if req.GroupID != nil {
		if err := s.groups.RequireMember(ctx, *req.GroupID, userID); err != nil {
			return nil, err
		}
	}

	list := &models.Checklist{
		UserID:  userID,
		GroupID: req.GroupID,
		Title:   req.Title,
	}
	if err := s.repo.Create(ctx, list); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create checklist")
	}
	return list, nil
}

// List returns the caller's checklists.
func (s *ChecklistService) List(ctx context.Context, userID string) ([]models.Checklist, error) {
	lists, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list checklists")
	}
	return lists, nil
}

// Delete removes a checklist the caller owns.
func (s *ChecklistService) Delete(ctx context.Context, userID, checklistID string) error {
	if _, err := s.authorize(ctx, userID, checklistID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, checklistID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete checklist")
	}
	return nil
}

// AddItem appends an item to a checklist the caller can access.
func (s *ChecklistService) AddItem(ctx context.Context, userID, checklistID string, req dto.AddChecklistItemRequest) (*models.ChecklistItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid item payload")
	}
	if _, err := s.authorize(ctx, userID, checklistID); err != nil {
		return nil, err
	}

	item := &models.ChecklistItem{
		ChecklistID: checklistID,
		Text:        req.Text,
		Position:    req.Position,
	}
	if err := s.repo.AddItem(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add item")
	}
	return item, nil
}

// Items returns all items on a checklist.
func (s *ChecklistService) Items(ctx context.Context, userID, checklistID string) ([]models.ChecklistItem, error) {
	if _, err := s.authorize(ctx, userID, checklistID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, checklistID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list items")
	}
	return items, nil
}

// ToggleItem flips an item's done state.
func (s *ChecklistService) ToggleItem(ctx context.Context, userID, checklistID, itemID string, done bool) error {
	if _, err := s.authorize(ctx, userID, checklistID); err != nil {
		return err
	}
	if err := s.repo.SetItemDone(ctx, itemID, done); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle item")
	}
	return nil
}

// DeleteItem removes an item.
func (s *ChecklistService) DeleteItem(ctx context.Context, userID, checklistID, itemID string) error {
	if _, err := s.authorize(ctx, userID, checklistID); err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete item")
	}
	return nil
}

// authorize loads the checklist and allows owners always, plus group members
// for group-shared lists.
func (s *ChecklistService) authorize(ctx context.Context, userID, checklistID string) (*models.Checklist, error) {
	list, err := s.repo.FindByID(ctx, checklistID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "checklist not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load checklist")
	}
	if list.UserID == userID {
		return list, nil
	}
	if list.GroupID != nil {
		if err := s.groups.RequireMember(ctx, *list.GroupID, userID); err == nil {
			return list, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "checklist does not belong to user")
}
