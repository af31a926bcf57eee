package dto

// BusyBlockPayload is a single weekly commitment in HH:MM wire format.
type BusyBlockPayload struct {
	DayOfWeek int    `json:"dayOfWeek" validate:"min=0,max=6"`
	Start     string `json:"start" validate:"required"`
	End       string `json:"end" validate:"required"`
	Label     string `json:"label"`
	Location  string `json:"location"`
}

// LocationHintPayload records where the user already is on a given day.
type LocationHintPayload struct {
	Location string `json:"location" validate:"required"`
	Day      int    `json:"day" validate:"min=0,max=6"`
	EndTime  string `json:"endTime" validate:"required"`
}

// SubmitScheduleRequest replaces the caller's weekly schedule wholesale.
type SubmitScheduleRequest struct {
	BusyBlocks     []BusyBlockPayload    `json:"busyBlocks" validate:"dive"`
	DayPreferences []int                 `json:"dayPreferences" validate:"omitempty,dive,min=0,max=6"`
	LocationHints  []LocationHintPayload `json:"locationHints" validate:"omitempty,dive"`
}

// ScheduleResponse returns the stored schedule in wire format.
type ScheduleResponse struct {
	UserID         string                `json:"userId"`
	Source         string                `json:"source"`
	BusyBlocks     []BusyBlockPayload    `json:"busyBlocks"`
	DayPreferences []int                 `json:"dayPreferences,omitempty"`
	LocationHints  []LocationHintPayload `json:"locationHints,omitempty"`
}

// ImportSummary reports what a calendar import produced.
type ImportSummary struct {
	Schedule      ScheduleResponse `json:"schedule"`
	EventCount    int              `json:"eventCount"`
	ImportedCount int              `json:"importedCount"`
	SkippedCount  int              `json:"skippedCount"`
}
