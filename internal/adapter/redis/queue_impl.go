package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/internal/repository"
)

const (
	pendingQueueKey    = "crawler:jobs:pending"
	processingQueueKey = "crawler:jobs:processing"
	failedQueueKey     = "crawler:jobs:failed"

	failedHistoryLimit = 500
)

// QueueRepoImpl is a reliable job queue on Redis lists.
//
// Jobs are LPUSHed onto the pending list and delivered with BRPOPLPUSH into the
// processing list, so each delivery reaches one worker and survives a worker
// crash until Recover moves it back.
type QueueRepoImpl struct {
	client *redis.Client
	now    func() time.Time
}

// NewQueueRepo creates a new instance of QueueRepoImpl.
func NewQueueRepo(client *redis.Client) *QueueRepoImpl {
	return &QueueRepoImpl{client: client, now: time.Now}
}

// Enqueue appends a new job for provider to the pending list.
func (r *QueueRepoImpl) Enqueue(ctx context.Context, provider entity.Provider) (*entity.CrawlJob, error) {
	if !provider.Valid() {
		return nil, fmt.Errorf("enqueue %q: %w", provider, entity.ErrUnknownProvider)
	}
	job := &entity.CrawlJob{
		ID:         uuid.NewString(),
		Provider:   provider,
		EnqueuedAt: r.now().UTC(),
		Attempt:    1,
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	if err := r.client.LPush(ctx, pendingQueueKey, payload).Err(); err != nil {
		return nil, fmt.Errorf("failed to push job for %s: %w", provider, err)
	}
	job.Receipt = string(payload)
	return job, nil
}

// Dequeue blocks up to wait for a job and moves it to the processing list.
func (r *QueueRepoImpl) Dequeue(ctx context.Context, wait time.Duration) (*entity.CrawlJob, error) {
	raw, err := r.client.BRPopLPush(ctx, pendingQueueKey, processingQueueKey, wait).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrQueueEmpty
		}
		return nil, fmt.Errorf("failed to pop job from queue: %w", err)
	}

	var job entity.CrawlJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		// An undecodable delivery can never succeed; park it with the failures.
		decodeErr := fmt.Errorf("failed to decode job payload: %w", err)
		if dlErr := r.deadLetter(ctx, raw, entity.FailedJob{Reason: "undecodable payload: " + err.Error(), FailedAt: r.now().UTC()}); dlErr != nil {
			return nil, errors.Join(decodeErr, fmt.Errorf("failed to park undecodable payload: %w", dlErr))
		}
		return nil, decodeErr
	}
	job.Receipt = raw
	return &job, nil
}

// Complete removes the delivery from the processing list.
func (r *QueueRepoImpl) Complete(ctx context.Context, job *entity.CrawlJob) error {
	return r.client.LRem(ctx, processingQueueKey, 1, job.Receipt).Err()
}

// Fail removes the delivery from the processing list and records it on the
// capped failed list. The next scheduled run is the retry.
func (r *QueueRepoImpl) Fail(ctx context.Context, job *entity.CrawlJob, reason string) error {
	return r.deadLetter(ctx, job.Receipt, entity.FailedJob{Job: *job, Reason: reason, FailedAt: r.now().UTC()})
}

func (r *QueueRepoImpl) deadLetter(ctx context.Context, receipt string, record entity.FailedJob) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, processingQueueKey, 1, receipt)
		pipe.LPush(ctx, failedQueueKey, payload)
		pipe.LTrim(ctx, failedQueueKey, 0, failedHistoryLimit-1)
		return nil
	})
	return err
}

// Recover moves every delivery stranded in the processing list back to the
// head of the pending list with its attempt count bumped. It must only run
// while no worker of this queue is active.
func (r *QueueRepoImpl) Recover(ctx context.Context) (int, error) {
	stranded, err := r.client.LRange(ctx, processingQueueKey, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list processing jobs: %w", err)
	}

	recovered := 0
	for _, raw := range stranded {
		var job entity.CrawlJob
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			if err := r.deadLetter(ctx, raw, entity.FailedJob{Reason: "undecodable payload: " + err.Error(), FailedAt: r.now().UTC()}); err != nil {
				return recovered, err
			}
			continue
		}
		job.Attempt++
		payload, err := json.Marshal(&job)
		if err != nil {
			return recovered, err
		}
		_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.LRem(ctx, processingQueueKey, 1, raw)
			pipe.RPush(ctx, pendingQueueKey, payload)
			return nil
		})
		if err != nil {
			return recovered, fmt.Errorf("failed to requeue job %s: %w", job.ID, err)
		}
		recovered++
	}
	return recovered, nil
}

// Size returns the current number of pending jobs.
func (r *QueueRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, pendingQueueKey).Result()
}

// Failed returns the most recent failed jobs, newest first.
func (r *QueueRepoImpl) Failed(ctx context.Context, limit int64) ([]entity.FailedJob, error) {
	raws, err := r.client.LRange(ctx, failedQueueKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]entity.FailedJob, 0, len(raws))
	for _, raw := range raws {
		var record entity.FailedJob
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}
