package models

import "time"

// Group is a study group owned by one user.
type Group struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Course      string    `db:"course" json:"course"`
	OwnerID     string    `db:"owner_id" json:"owner_id"`
	MaxMembers  int       `db:"max_members" json:"max_members"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GroupMember links a user to a group.
type GroupMember struct {
	GroupID  string    `db:"group_id" json:"group_id"`
	UserID   string    `db:"user_id" json:"user_id"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

// GroupFilter describes query params for listing groups.
type GroupFilter struct {
	Course   string
	Search   string
	MemberID string
	Page     int
	PageSize int
}
