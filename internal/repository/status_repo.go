package repository

import (
	"context"

	"github.com/user/internfinder/internal/entity"
)

// StatusRepository records the last ingestion outcome per provider.
type StatusRepository interface {
	// Save overwrites the provider's status, keeping LastSuccessAt when the new
	// status does not carry one.
	Save(ctx context.Context, status *entity.CrawlStatus) error
	// Get returns ErrStatusNotFound for providers that never ran.
	Get(ctx context.Context, provider entity.Provider) (*entity.CrawlStatus, error)
}
