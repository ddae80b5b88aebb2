package response

import "time"

type TriggerCrawlResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Enqueued int    `json:"enqueued"`
	JobID    string `json:"job_id,omitempty"`
}

// CrawlStatusResponse is a DTO for crawl status, mirroring entity.CrawlStatus
type CrawlStatusResponse struct {
	Provider      string     `json:"provider"`
	CurrentStatus string     `json:"current_status"` // "pending", "crawling", "completed", "failed", "interrupted"
	JobID         string     `json:"job_id,omitempty"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
	Extracted     int        `json:"extracted"`
	Inserted      int        `json:"inserted"`
	Duplicates    int        `json:"duplicates"`
	FailureReason string     `json:"failure_reason,omitempty"`
}

type FailedJobResponse struct {
	JobID    string    `json:"job_id"`
	Provider string    `json:"provider"`
	Attempt  int       `json:"attempt"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
