package dto

// CreateChecklistRequest creates a personal or group-shared checklist.
type CreateChecklistRequest struct {
	Title   string  `json:"title" validate:"required,min=1,max=200"`
	GroupID *string `json:"groupId"`
}

// AddChecklistItemRequest appends an item to a checklist.
type AddChecklistItemRequest struct {
	Text     string `json:"text" validate:"required,min=1,max=500"`
	Position int    `json:"position" validate:"omitempty,min=0"`
}

// ToggleChecklistItemRequest flips an item's done state.
type ToggleChecklistItemRequest struct {
	Done bool `json:"done"`
}
