package repository

import (
	"context"
	"time"

	"github.com/user/internfinder/internal/entity"
)

// JobQueue is a durable at-least-once queue of provider crawl jobs.
type JobQueue interface {
	// Enqueue appends a new job for the provider.
	Enqueue(ctx context.Context, provider entity.Provider) (*entity.CrawlJob, error)
	// Dequeue delivers one job to the caller, waiting up to wait for one to arrive.
	// It returns ErrQueueEmpty if none did.
	Dequeue(ctx context.Context, wait time.Duration) (*entity.CrawlJob, error)
	// Complete acknowledges a delivered job.
	Complete(ctx context.Context, job *entity.CrawlJob) error
	// Fail acknowledges a delivered job as failed. The job is not re-enqueued.
	Fail(ctx context.Context, job *entity.CrawlJob, reason string) error
	// Recover redelivers jobs abandoned by crashed workers and reports how many.
	Recover(ctx context.Context) (int, error)
	// Size returns the number of pending jobs.
	Size(ctx context.Context) (int64, error)
}
