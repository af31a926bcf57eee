package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studysync/studysync-api/internal/dto"
	"github.com/studysync/studysync-api/internal/models"
	appErrors "github.com/studysync/studysync-api/pkg/errors"
)

type chatRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	ListRecent(ctx context.Context, groupID string, limit int, before string) ([]models.ChatMessage, error)
}

type chatPublisher interface {
	Publish(ctx context.Context, channel string, value interface{}) error
}

type chatMembershipChecker interface {
	RequireMember(ctx context.Context, groupID, userID string) error
}

// ChatConfig gates chat behaviour.
type ChatConfig struct {
	Enabled      bool
	HistoryLimit int
}

// ChatService persists group messages and fans them out over pub/sub.
type ChatService struct {
	repo      chatRepository
	publisher chatPublisher
	groups    chatMembershipChecker
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ChatConfig
}

// NewChatService constructs a ChatService.
func NewChatService(repo chatRepository, publisher chatPublisher, groups chatMembershipChecker, validate *validator.Validate, logger *zap.Logger, cfg ChatConfig) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 100
	}
	return &ChatService{repo: repo, publisher: publisher, groups: groups, validator: validate, logger: logger, cfg: cfg}
}

// Post stores a message and publishes it to the group channel. Persistence is
// authoritative; a failed publish only degrades real-time delivery.
func (s *ChatService) Post(ctx context.Context, groupID, userID string, req dto.PostMessageRequest) (*models.ChatMessage, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "chat is disabled")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}
	if err := s.groups.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		GroupID: groupID,
		UserID:  userID,
		Body:    req.Body,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store message")
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, "chat:"+groupID, msg); err != nil {
			s.logger.Warn("failed to publish chat message", zap.String("group_id", groupID), zap.Error(err))
		}
	}

	return msg, nil
}

// History replays persisted messages, newest first.
func (s *ChatService) History(ctx context.Context, groupID, userID string, query dto.ChatHistoryQuery) ([]models.ChatMessage, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "chat is disabled")
	}
	if err := s.groups.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}

	messages, err := s.repo.ListRecent(ctx, groupID, limit, query.Before)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load messages")
	}
	return messages, nil
}
