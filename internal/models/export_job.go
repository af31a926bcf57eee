package models

import "time"

// ExportJobStatus enumerates job lifecycle states.
type ExportJobStatus string

const (
	ExportJobPending   ExportJobStatus = "PENDING"
	ExportJobRunning   ExportJobStatus = "RUNNING"
	ExportJobCompleted ExportJobStatus = "COMPLETED"
	ExportJobFailed    ExportJobStatus = "FAILED"
)

// ExportJob tracks an asynchronous meeting-brief export.
type ExportJob struct {
	ID          string          `db:"id" json:"id"`
	GroupID     string          `db:"group_id" json:"group_id"`
	RequestedBy string          `db:"requested_by" json:"requested_by"`
	Format      string          `db:"format" json:"format"`
	Status      ExportJobStatus `db:"status" json:"status"`
	FilePath    string          `db:"file_path" json:"-"`
	Error       *string         `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	CompletedAt *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}

// Export formats supported by the meeting-brief pipeline.
const (
	ExportFormatPDF = "pdf"
	ExportFormatCSV = "csv"
)
