package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/internal/repository"
)

const statusKeyPrefix = "crawler:status:"

// StatusRepoImpl keeps one Redis hash per provider with its last crawl outcome.
type StatusRepoImpl struct {
	client *redis.Client
}

// NewStatusRepo creates a new instance of StatusRepoImpl.
func NewStatusRepo(client *redis.Client) *StatusRepoImpl {
	return &StatusRepoImpl{client: client}
}

func (r *StatusRepoImpl) generateKey(provider entity.Provider) string {
	return fmt.Sprintf("%s%s", statusKeyPrefix, provider)
}

// Save writes the status. last_success_at is only written when set, so a
// failed run keeps the previous success time.
func (r *StatusRepoImpl) Save(ctx context.Context, status *entity.CrawlStatus) error {
	fields := map[string]interface{}{
		"current_status": status.CurrentStatus,
		"job_id":         status.JobID,
		"extracted":      status.Extracted,
		"inserted":       status.Inserted,
		"duplicates":     status.Duplicates,
		"failure_reason": status.FailureReason,
	}
	if status.LastRunAt != nil {
		fields["last_run_at"] = status.LastRunAt.UTC().Format(time.RFC3339Nano)
	}
	if status.LastSuccessAt != nil {
		fields["last_success_at"] = status.LastSuccessAt.UTC().Format(time.RFC3339Nano)
	}
	return r.client.HSet(ctx, r.generateKey(status.Provider), fields).Err()
}

// Get returns repository.ErrStatusNotFound when the provider never ran.
func (r *StatusRepoImpl) Get(ctx context.Context, provider entity.Provider) (*entity.CrawlStatus, error) {
	vals, err := r.client.HGetAll(ctx, r.generateKey(provider)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, repository.ErrStatusNotFound
	}

	status := &entity.CrawlStatus{
		Provider:      provider,
		CurrentStatus: vals["current_status"],
		JobID:         vals["job_id"],
		FailureReason: vals["failure_reason"],
		Extracted:     atoi(vals["extracted"]),
		Inserted:      atoi(vals["inserted"]),
		Duplicates:    atoi(vals["duplicates"]),
		LastRunAt:     parseTime(vals["last_run_at"]),
		LastSuccessAt: parseTime(vals["last_success_at"]),
	}
	return status, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}
