package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/internal/repository"
	"github.com/user/internfinder/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// JobProcessor handles one delivered job to completion.
type JobProcessor interface {
	Process(ctx context.Context, job *entity.CrawlJob) error
}

// PoolConfig sizes the worker pool.
type PoolConfig struct {
	Workers     int
	DequeueWait time.Duration
	// QueuePoll is how often the pending queue size gauge is refreshed.
	QueuePoll time.Duration
}

// WorkerPool runs a bounded number of workers, each processing one job at a time.
type WorkerPool struct {
	queue     repository.JobQueue
	processor JobProcessor
	cfg       PoolConfig
	metrics   *metrics.Metrics
	logger    *zap.Logger
	retryWait time.Duration
}

func NewWorkerPool(queue repository.JobQueue, processor JobProcessor, cfg PoolConfig, m *metrics.Metrics, logger *zap.Logger) *WorkerPool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.DequeueWait <= 0 {
		cfg.DequeueWait = 5 * time.Second
	}
	if cfg.QueuePoll <= 0 {
		cfg.QueuePoll = 15 * time.Second
	}
	return &WorkerPool{
		queue:     queue,
		processor: processor,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
		retryWait: time.Second,
	}
}

// Run blocks until ctx is cancelled and every worker has finished its current job.
func (p *WorkerPool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.Workers; i++ {
		id := i + 1
		g.Go(func() error {
			p.work(ctx, id)
			return nil
		})
	}
	g.Go(func() error {
		p.reportQueueSize(ctx)
		return nil
	})
	p.logger.Info("Worker pool started", zap.Int("workers", p.cfg.Workers))
	err := g.Wait()
	p.logger.Info("Worker pool stopped")
	return err
}

func (p *WorkerPool) work(ctx context.Context, id int) {
	log := p.logger.With(zap.Int("worker", id))
	for ctx.Err() == nil {
		job, err := p.queue.Dequeue(ctx, p.cfg.DequeueWait)
		if errors.Is(err, repository.ErrQueueEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("Failed to dequeue job", zap.Error(err))
			p.metrics.JobsTotal.WithLabelValues("", "failure", "queue").Inc()
			p.pause(ctx)
			continue
		}
		p.handle(ctx, log, job)
	}
}

func (p *WorkerPool) handle(ctx context.Context, log *zap.Logger, job *entity.CrawlJob) {
	err := p.safeProcess(ctx, job)
	ackCtx := context.WithoutCancel(ctx)

	if err != nil && ctx.Err() != nil {
		// Interrupted by shutdown: the delivery stays in processing and is
		// redelivered by Recover on the next start.
		log.Warn("Job interrupted by shutdown", zap.String("job_id", job.ID), zap.String("provider", job.Provider.String()))
		return
	}
	if err != nil {
		if ferr := p.queue.Fail(ackCtx, job, err.Error()); ferr != nil {
			log.Error("Failed to mark job failed", zap.String("job_id", job.ID), zap.Error(ferr))
		}
		return
	}
	if cerr := p.queue.Complete(ackCtx, job); cerr != nil {
		log.Error("Failed to acknowledge job", zap.String("job_id", job.ID), zap.Error(cerr))
	}
}

// safeProcess turns a panicking job into a failed one so the worker survives.
func (p *WorkerPool) safeProcess(ctx context.Context, job *entity.CrawlJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing job: %v", r)
		}
	}()
	return p.processor.Process(ctx, job)
}

func (p *WorkerPool) reportQueueSize(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.QueuePoll)
	defer ticker.Stop()
	for {
		if n, err := p.queue.Size(ctx); err == nil {
			p.metrics.JobsInQueue.Set(float64(n))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *WorkerPool) pause(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(p.retryWait):
	}
}
