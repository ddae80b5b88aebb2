package repository

import (
	"context"

	"github.com/user/internfinder/internal/entity"
)

// InsertResult reports how a batch was absorbed by the store.
type InsertResult struct {
	Inserted   int
	Duplicates int
}

// ListingRepository persists listings under the compound uniqueness constraint.
type ListingRepository interface {
	// InsertBatch inserts all listings, skipping individual duplicates.
	InsertBatch(ctx context.Context, listings []entity.Listing) (InsertResult, error)
	// Find serves the read API.
	Find(ctx context.Context, filter entity.ListingFilter, sort entity.ListingSort, page entity.Page) (*entity.ListingPage, error)
	DistinctCompanies(ctx context.Context) ([]string, error)
	DistinctLocations(ctx context.Context) ([]string, error)
	DistinctProviders(ctx context.Context) ([]string, error)
	DistinctFields(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}
