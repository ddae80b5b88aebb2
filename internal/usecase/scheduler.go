package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/internal/repository"
	"github.com/user/internfinder/pkg/metrics"
	"go.uber.org/zap"
)

// ScheduleConfig is when the daily crawl fires.
type ScheduleConfig struct {
	Spec     string
	Location *time.Location
}

// Scheduler enqueues one crawl job per provider on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	entry     cron.EntryID
	queue     repository.JobQueue
	statuses  repository.StatusRepository
	providers []entity.Provider
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewScheduler(cfg ScheduleConfig, queue repository.JobQueue, statuses repository.StatusRepository, m *metrics.Metrics, logger *zap.Logger) (*Scheduler, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		queue:     queue,
		statuses:  statuses,
		providers: entity.Providers(),
		metrics:   m,
		logger:    logger,
	}

	id, err := s.cron.AddFunc(cfg.Spec, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %w", cfg.Spec, err)
	}
	s.entry = id
	return s, nil
}

// Start begins firing on schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Time("next_run", s.Next()))
}

// Stop halts the schedule and waits for a running trigger to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// Next returns the next fire time, or zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// RunOnce enqueues one job per provider in the stable provider order and
// returns how many were accepted. A failed enqueue never stops the others.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	accepted := 0
	for _, p := range s.providers {
		if _, err := s.Enqueue(ctx, p); err != nil {
			continue
		}
		accepted++
	}
	s.logger.Info("Daily crawl triggered", zap.Int("enqueued", accepted), zap.Int("providers", len(s.providers)))
	return accepted
}

// Enqueue submits a single provider crawl and marks the provider pending.
func (s *Scheduler) Enqueue(ctx context.Context, p entity.Provider) (*entity.CrawlJob, error) {
	job, err := s.queue.Enqueue(ctx, p)
	if err != nil {
		s.metrics.SchedulerEnqueued.WithLabelValues(p.String(), "failure").Inc()
		s.logger.Error("Failed to enqueue crawl job", zap.String("provider", p.String()), zap.Error(err))
		return nil, err
	}
	s.metrics.SchedulerEnqueued.WithLabelValues(p.String(), "success").Inc()
	s.logger.Info("Crawl job enqueued", zap.String("provider", p.String()), zap.String("job_id", job.ID))

	if err := s.statuses.Save(ctx, &entity.CrawlStatus{
		Provider:      p,
		CurrentStatus: entity.StatusPending,
		JobID:         job.ID,
	}); err != nil {
		s.logger.Warn("Failed to record pending status", zap.String("provider", p.String()), zap.Error(err))
	}
	return job, nil
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
