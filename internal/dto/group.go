package dto

// CreateGroupRequest creates a study group owned by the caller.
type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"max=1000"`
	Course      string `json:"course" validate:"max=60"`
	MaxMembers  int    `json:"maxMembers" validate:"omitempty,min=2,max=100"`
}

// UpdateGroupRequest mutates group metadata. Only the owner may call it.
type UpdateGroupRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Course      *string `json:"course" validate:"omitempty,max=60"`
	MaxMembers  *int    `json:"maxMembers" validate:"omitempty,min=2,max=100"`
}

// GroupQuery filters the group listing.
type GroupQuery struct {
	Course   string `form:"course"`
	Search   string `form:"search"`
	Mine     bool   `form:"mine"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// AddMemberRequest adds a user to a group.
type AddMemberRequest struct {
	UserID string `json:"userId" validate:"required"`
}
