package memory

import (
	"context"
	"sync"

	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/internal/repository"
)

// StatusRepoImpl keeps crawl statuses in process memory.
type StatusRepoImpl struct {
	mu       sync.RWMutex
	statuses map[entity.Provider]entity.CrawlStatus
}

func NewStatusRepo() *StatusRepoImpl {
	return &StatusRepoImpl{statuses: make(map[entity.Provider]entity.CrawlStatus)}
}

func (r *StatusRepoImpl) Save(_ context.Context, status *entity.CrawlStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := *status
	if next.LastSuccessAt == nil {
		next.LastSuccessAt = r.statuses[status.Provider].LastSuccessAt
	}
	r.statuses[status.Provider] = next
	return nil
}

func (r *StatusRepoImpl) Get(_ context.Context, provider entity.Provider) (*entity.CrawlStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status, ok := r.statuses[provider]
	if !ok {
		return nil, repository.ErrStatusNotFound
	}
	return &status, nil
}
