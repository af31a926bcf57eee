package models

import "time"

// ChatMessage is a persisted group chat message. Real-time delivery happens
// over the pub/sub channel keyed by group id; this row is the durable copy.
type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	GroupID   string    `db:"group_id" json:"group_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
