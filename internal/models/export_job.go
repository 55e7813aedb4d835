package models

import "time"

// ExportFormat enumerates supported calendar export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus captures the lifecycle of an export job.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob tracks rendering of one timetable's calendar to a file.
type ExportJob struct {
	ID           string       `db:"id" json:"id"`
	TimetableID  string       `db:"timetable_id" json:"timetable_id"`
	Format       ExportFormat `db:"format" json:"format"`
	Status       ExportStatus `db:"status" json:"status"`
	Progress     int          `db:"progress" json:"progress"`
	ResultURL    *string      `db:"result_url" json:"result_url,omitempty"`
	ExpiresAt    *time.Time   `db:"expires_at" json:"expires_at,omitempty"`
	ErrorMessage *string      `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time   `db:"finished_at" json:"finished_at,omitempty"`
}

// SystemMetrics is a JSON snapshot of in-process counters.
type SystemMetrics struct {
	CacheHitRatio              float64   `json:"cache_hit_ratio"`
	CacheHits                  uint64    `json:"cache_hits"`
	CacheMisses                uint64    `json:"cache_misses"`
	RequestsTotal              uint64    `json:"requests_total"`
	AverageRequestDurationMs   float64   `json:"average_request_duration_ms"`
	DBQueryCount               uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs   float64   `json:"average_db_query_duration_ms"`
	TimetablesSubmitted        uint64    `json:"timetables_submitted"`
	SubmissionsRejected        uint64    `json:"submissions_rejected"`
	AverageAllocationLatencyMs float64   `json:"average_allocation_latency_ms"`
	ActiveSessions             int       `json:"active_sessions"`
	Goroutines                 int       `json:"goroutines"`
	GeneratedAt                time.Time `json:"generated_at"`
}
