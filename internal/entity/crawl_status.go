package entity

import "time"

const (
	StatusPending     = "pending"
	StatusCrawling    = "crawling"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted" // stopped by shutdown, redelivered on next start
)

// CrawlStatus is the last known ingestion outcome for one provider.
type CrawlStatus struct {
	Provider      Provider   `json:"provider"`
	CurrentStatus string     `json:"current_status"`
	JobID         string     `json:"job_id,omitempty"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
	Extracted     int        `json:"extracted"`
	Inserted      int        `json:"inserted"`
	Duplicates    int        `json:"duplicates"`
	FailureReason string     `json:"failure_reason,omitempty"`
}
