package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studysync/studysync-api/internal/models"
)

// ChecklistRepository stores checklists and their items.
type ChecklistRepository struct {
	db *sqlx.DB
}

// NewChecklistRepository constructs the repository.
func NewChecklistRepository(db *sqlx.DB) *ChecklistRepository {
	return &ChecklistRepository{db: db}
}

// Create inserts a checklist.
func (r *ChecklistRepository) Create(ctx context.Context, list *models.Checklist) error {
	if list.ID == "" {
		list.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if list.CreatedAt.IsZero() {
		list.CreatedAt = now
	}
	list.UpdatedAt = now
	const query = `INSERT INTO checklists (id, user_id, group_id, title, created_at, updated_at) VALUES (:id, :user_id, :group_id, :title, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, list); err != nil {
		return fmt.Errorf("create checklist: %w", err)
	}
	return nil
}

// FindByID returns a checklist by identifier.
func (r *ChecklistRepository) FindByID(ctx context.Context, id string) (*models.Checklist, error) {
	const query = `SELECT id, user_id, group_id, title, created_at, updated_at FROM checklists WHERE id = $1 LIMIT 1`
	var list models.Checklist
	if err := r.db.GetContext(ctx, &list, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find checklist: %w", err)
	}
	return &list, nil
}

// ListByUser returns all checklists owned by a user.
func (r *ChecklistRepository) ListByUser(ctx context.Context, userID string) ([]models.Checklist, error) {
	const query = `SELECT id, user_id, group_id, title, created_at, updated_at FROM checklists WHERE user_id = $1 ORDER BY created_at DESC`
	var lists []models.Checklist
	if err := r.db.SelectContext(ctx, &lists, query, userID); err != nil {
		return nil, fmt.Errorf("list checklists: %w", err)
	}
	return lists, nil
}

// Delete removes a checklist and its items.
func (r *ChecklistRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM checklists WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete checklist: %w", err)
	}
	return nil
}

// AddItem appends an item to a checklist.
func (r *ChecklistRepository) AddItem(ctx context.Context, item *models.ChecklistItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO checklist_items (id, checklist_id, text, done, position, completed_at, created_at) VALUES (:id, :checklist_id, :text, :done, :position, :completed_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("add checklist item: %w", err)
	}
	return nil
}

// ListItems returns items ordered by position.
func (r *ChecklistRepository) ListItems(ctx context.Context, checklistID string) ([]models.ChecklistItem, error) {
	const query = `SELECT id, checklist_id, text, done, position, completed_at, created_at FROM checklist_items WHERE checklist_id = $1 ORDER BY position ASC, created_at ASC`
	var items []models.ChecklistItem
	if err := r.db.SelectContext(ctx, &items, query, checklistID); err != nil {
		return nil, fmt.Errorf("list checklist items: %w", err)
	}
	return items, nil
}

// SetItemDone flips the done flag, stamping completion time.
func (r *ChecklistRepository) SetItemDone(ctx context.Context, itemID string, done bool) error {
	var completedAt *time.Time
	if done {
		now := time.Now().UTC()
		completedAt = &now
	}
	const query = `UPDATE checklist_items SET done = $2, completed_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, itemID, done, completedAt); err != nil {
		return fmt.Errorf("set checklist item done: %w", err)
	}
	return nil
}

// DeleteItem removes a single item.
func (r *ChecklistRepository) DeleteItem(ctx context.Context, itemID string) error {
	const query = `DELETE FROM checklist_items WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, itemID); err != nil {
		return fmt.Errorf("delete checklist item: %w", err)
	}
	return nil
}
