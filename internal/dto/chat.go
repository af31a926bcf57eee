package dto

import "time"

// PostMessageRequest sends a chat message to a group.
type PostMessageRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

// ChatMessageResponse is a delivered or replayed chat message.
type ChatMessageResponse struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	UserID    string    `json:"userId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatHistoryQuery pages through persisted messages, newest first.
type ChatHistoryQuery struct {
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=500"`
	Before string `form:"before"`
}
