package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studysync/studysync-api/internal/models"
)

// ChatRepository stores the durable copy of group chat messages.
type ChatRepository struct {
	db *sqlx.DB
}

// NewChatRepository constructs the repository.
func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create persists a message.
func (r *ChatRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO chat_messages (id, group_id, user_id, body, created_at) VALUES (:id, :group_id, :user_id, :body, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create chat message: %w", err)
	}
	return nil
}

// ListRecent returns the newest messages for a group, newest first. When
// before is non-empty only messages older than that message are returned.
func (r *ChatRepository) ListRecent(ctx context.Context, groupID string, limit int, before string) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var messages []models.ChatMessage
	if before != "" {
		const query = `SELECT id, group_id, user_id, body, created_at FROM chat_messages
			WHERE group_id = $1 AND created_at < (SELECT created_at FROM chat_messages WHERE id = $2)
			ORDER BY created_at DESC LIMIT $3`
		if err := r.db.SelectContext(ctx, &messages, query, groupID, before, limit); err != nil {
			return nil, fmt.Errorf("list chat messages before: %w", err)
		}
		return messages, nil
	}

	const query = `SELECT id, group_id, user_id, body, created_at FROM chat_messages WHERE group_id = $1 ORDER BY created_at DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &messages, query, groupID, limit); err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return messages, nil
}

// DeleteByGroup removes all messages of a group, used when a group is deleted.
func (r *ChatRepository) DeleteByGroup(ctx context.Context, groupID string) error {
	const query = `DELETE FROM chat_messages WHERE group_id = $1`
	if _, err := r.db.ExecContext(ctx, query, groupID); err != nil {
		return fmt.Errorf("delete chat messages: %w", err)
	}
	return nil
}
