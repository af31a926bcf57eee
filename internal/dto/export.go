package dto

import "time"

// CreateExportRequest queues a meeting-brief export for a group.
type CreateExportRequest struct {
	Format             string    `json:"format" validate:"required,oneof=pdf csv"`
	Start              time.Time `json:"start" validate:"required"`
	End                time.Time `json:"end" validate:"required"`
	DurationMinutes    int       `json:"durationMinutes" validate:"required,min=1"`
	RequiredCount      int       `json:"requiredCount" validate:"omitempty,min=1"`
	GranularityMinutes int       `json:"granularityMinutes" validate:"omitempty,min=1"`
}

// ExportJobResponse reports job status and, when completed, a signed URL.
type ExportJobResponse struct {
	ID          string     `json:"id"`
	GroupID     string     `json:"groupId"`
	Format      string     `json:"format"`
	Status      string     `json:"status"`
	DownloadURL string     `json:"downloadUrl,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
