package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/internal/repository"
	"github.com/user/internfinder/pkg/metrics"
)

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// fakeQueue is an in-memory JobQueue.
type fakeQueue struct {
	mu          sync.Mutex
	seq         int
	pending     []*entity.CrawlJob
	completed   []*entity.CrawlJob
	failed      map[string]string
	failEnqueue map[entity.Provider]error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{
		failed:      make(map[string]string),
		failEnqueue: make(map[entity.Provider]error),
	}
}

func (q *fakeQueue) Enqueue(_ context.Context, p entity.Provider) (*entity.CrawlJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.failEnqueue[p]; err != nil {
		return nil, err
	}
	q.seq++
	job := &entity.CrawlJob{ID: fmt.Sprintf("job-%d", q.seq), Provider: p, EnqueuedAt: time.Now(), Attempt: 1}
	q.pending = append(q.pending, job)
	return job, nil
}

func (q *fakeQueue) Dequeue(ctx context.Context, _ time.Duration) (*entity.CrawlJob, error) {
	q.mu.Lock()
	if len(q.pending) > 0 {
		job := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()
		return job, nil
	}
	q.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Millisecond):
		return nil, repository.ErrQueueEmpty
	}
}

func (q *fakeQueue) Complete(_ context.Context, job *entity.CrawlJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.completed = append(q.completed, job)
	return nil
}

func (q *fakeQueue) Fail(_ context.Context, job *entity.CrawlJob, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failed[job.ID] = reason
	return nil
}

func (q *fakeQueue) Recover(context.Context) (int, error) { return 0, nil }

func (q *fakeQueue) Size(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.pending)), nil
}

func (q *fakeQueue) providers() []entity.Provider {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]entity.Provider, 0, len(q.pending))
	for _, j := range q.pending {
		out = append(out, j.Provider)
	}
	return out
}

func (q *fakeQueue) counts() (completed, failed int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.completed), len(q.failed)
}

// fakeSession serves inline HTML keyed by URL.
type fakeSession struct {
	pages    map[string]string
	failures map[string]error
	current  string
	closed   bool
}

func (s *fakeSession) Navigate(_ context.Context, url string, _ repository.Readiness) error {
	if err, ok := s.failures[url]; ok {
		return err
	}
	if _, ok := s.pages[url]; !ok {
		return fmt.Errorf("%w: %s", repository.ErrNavigationFailed, url)
	}
	s.current = url
	return nil
}

func (s *fakeSession) HTML(context.Context) (string, error) { return s.pages[s.current], nil }
func (s *fakeSession) ScrollToBottom(context.Context) error { return nil }
func (s *fakeSession) Visible(context.Context, string) (bool, error) { return true, nil }
func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

// fakeBrowser hands out sessions built by newSession and remembers them.
type fakeBrowser struct {
	mu         sync.Mutex
	newSession func() *fakeSession
	sessions   []*fakeSession
}

func (b *fakeBrowser) NewSession(context.Context) (repository.Session, error) {
	s := b.newSession()
	b.mu.Lock()
	b.sessions = append(b.sessions, s)
	b.mu.Unlock()
	return s, nil
}

// stubCrawler returns a fixed result.
type stubCrawler struct {
	provider entity.Provider
	raws     []entity.RawListing
	err      error
}

func (c *stubCrawler) Provider() entity.Provider { return c.provider }

func (c *stubCrawler) Crawl(context.Context, repository.Session) ([]entity.RawListing, error) {
	return c.raws, c.err
}

// processorFunc adapts a function to JobProcessor.
type processorFunc func(ctx context.Context, job *entity.CrawlJob) error

func (f processorFunc) Process(ctx context.Context, job *entity.CrawlJob) error { return f(ctx, job) }
