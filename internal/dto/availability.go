package dto

import "time"

// OptimalTimesRequest asks for ranked meeting windows across a group. Start
// and End may both be omitted, in which case the service searches the next
// seven days; supplying only one of them is a validation error.
type OptimalTimesRequest struct {
	Start              time.Time `json:"start" validate:"required"`
	End                time.Time `json:"end" validate:"required"`
	DurationMinutes    int       `json:"durationMinutes" validate:"required,min=1"`
	RequiredCount      int       `json:"requiredCount" validate:"omitempty,min=1"`
	GranularityMinutes int       `json:"granularityMinutes" validate:"omitempty,min=1"`
}

// CandidateWindowResponse is one ranked meeting window.
type CandidateWindowResponse struct {
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	Score            float64   `json:"score"`
	AvailableCount   int       `json:"availableCount"`
	TotalCount       int       `json:"totalCount"`
	AvailableUserIDs []string  `json:"availableUserIds"`
	MissingUserIDs   []string  `json:"missingUserIds,omitempty"`
}

// OptimalTimesResponse wraps the ranked windows for a group query.
type OptimalTimesResponse struct {
	GroupID string                    `json:"groupId"`
	Windows []CandidateWindowResponse `json:"windows"`
	Cached  bool                      `json:"cached"`
}
