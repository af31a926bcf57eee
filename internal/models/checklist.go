package models

import "time"

// Checklist groups todo items for a user, optionally shared with a group.
type Checklist struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	GroupID   *string   `db:"group_id" json:"group_id,omitempty"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ChecklistItem is a single todo entry.
type ChecklistItem struct {
	ID          string     `db:"id" json:"id"`
	ChecklistID string     `db:"checklist_id" json:"checklist_id"`
	Text        string     `db:"text" json:"text"`
	Done        bool       `db:"done" json:"done"`
	Position    int        `db:"position" json:"position"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
