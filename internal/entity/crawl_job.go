package entity

import "time"

// CrawlJob is one provider crawl request travelling through the job queue.
type CrawlJob struct {
	ID         string    `json:"id"`
	Provider   Provider  `json:"provider"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	Attempt    int       `json:"attempt"`

	// Receipt is the raw queue payload of this delivery, used to acknowledge it.
	Receipt string `json:"-"`
}

// FailedJob is a terminal record of a job that could not be processed.
type FailedJob struct {
	Job      CrawlJob  `json:"job"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}
