package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/internfinder/internal/entity"
)

func listing(title, company, location, date string, provider entity.Provider, fields ...string) entity.Listing {
	return entity.Listing{
		URL:        "https://example.com/jobs/" + title,
		Title:      title,
		DatePosted: date,
		Country:    "EG",
		Company:    company,
		Location:   location,
		Mode:       entity.ModeUnknown,
		Fields:     fields,
		Provider:   provider,
	}
}

func TestInsertBatch_SkipsDuplicatesWithoutAbortingBatch(t *testing.T) {
	repo := NewListingRepo()
	ctx := context.Background()

	a := listing("Marketing Intern", "Acme", "Cairo", "2026-10-13", entity.ProviderWuzzuf)
	b := listing("Backend Intern", "Acme", "Cairo", "2026-10-13", entity.ProviderWuzzuf)

	res, err := repo.InsertBatch(ctx, []entity.Listing{a, a, b})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 2, repo.Len())
}

func TestInsertBatch_IsIdempotent(t *testing.T) {
	repo := NewListingRepo()
	ctx := context.Background()
	batch := []entity.Listing{
		listing("Data Intern", "Globex", "Giza", "2026-10-13", entity.ProviderIndeed),
		listing("QA Intern", entity.UnknownCompany, "Alexandria", "2026-10-13", entity.ProviderTanqeeb),
	}

	_, err := repo.InsertBatch(ctx, batch)
	require.NoError(t, err)
	before := repo.Len()

	res, err := repo.InsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
	assert.Equal(t, 2, res.Duplicates)
	assert.Equal(t, before, repo.Len())
}

func TestInsertBatch_KeyIgnoresNonUniqueFields(t *testing.T) {
	repo := NewListingRepo()
	ctx := context.Background()

	a := listing("Design Intern", "Initech", "Cairo", "2026-10-13", entity.ProviderLinkedin)
	b := a
	b.URL = "https://example.com/other"
	b.Body = "different body"
	c := a
	c.Provider = entity.ProviderWuzzuf

	res, err := repo.InsertBatch(ctx, []entity.Listing{a, b, c})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Duplicates)
}

func TestInsertBatch_ConcurrentIdenticalInsertsKeepOneRow(t *testing.T) {
	repo := NewListingRepo()
	ctx := context.Background()
	l := listing("Finance Intern", "Umbrella", "Cairo", "2026-10-13", entity.ProviderWuzzuf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.InsertBatch(ctx, []entity.Listing{l})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, repo.Len())
}

func TestInsertBatch_RejectsUnparseableDateBeforeWriting(t *testing.T) {
	repo := NewListingRepo()
	bad := listing("Ops Intern", "Acme", "Cairo", "not-a-date", entity.ProviderWuzzuf)
	good := listing("HR Intern", "Acme", "Cairo", "2026-10-13", entity.ProviderWuzzuf)

	_, err := repo.InsertBatch(context.Background(), []entity.Listing{good, bad})
	require.Error(t, err)
	assert.Zero(t, repo.Len())
}

func TestDistinct(t *testing.T) {
	repo := NewListingRepo()
	ctx := context.Background()
	_, err := repo.InsertBatch(ctx, []entity.Listing{
		listing("A", "Acme", "Cairo", "2026-10-13", entity.ProviderWuzzuf, "Marketing", "Sales"),
		listing("B", "Globex", "Giza", "2026-10-13", entity.ProviderIndeed, "Sales"),
		listing("C", "Acme", "", "2026-10-13", entity.ProviderIndeed),
	})
	require.NoError(t, err)

	companies, err := repo.DistinctCompanies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Globex"}, companies)

	locations, err := repo.DistinctLocations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cairo", "Giza"}, locations)

	providers, err := repo.DistinctProviders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Indeed", "Wuzzuf"}, providers)

	fields, err := repo.DistinctFields(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Marketing", "Sales"}, fields)
}

func TestFind_FilterSortPaginate(t *testing.T) {
	repo := NewListingRepo()
	ctx := context.Background()
	_, err := repo.InsertBatch(ctx, []entity.Listing{
		listing("Marketing Intern", "Acme", "Cairo", "2026-10-11", entity.ProviderWuzzuf, "Marketing"),
		listing("Backend Intern", "Acme", "Giza", "2026-10-12", entity.ProviderWuzzuf, "IT"),
		listing("Frontend Intern", "Globex", "Cairo", "2026-10-13", entity.ProviderIndeed, "IT"),
		listing("Sales Associate", "Globex", "Cairo", "2026-10-13", entity.ProviderIndeed, "Sales"),
	})
	require.NoError(t, err)

	page, err := repo.Find(ctx,
		entity.ListingFilter{Search: "intern"},
		entity.ListingSort{DatePosted: entity.SortDesc},
		entity.Page{Page: 0, Take: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Frontend Intern", page.Data[0].Title)
	assert.Equal(t, "Backend Intern", page.Data[1].Title)

	page, err = repo.Find(ctx,
		entity.ListingFilter{Search: "intern"},
		entity.ListingSort{DatePosted: entity.SortDesc},
		entity.Page{Page: 1, Take: 2})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Marketing Intern", page.Data[0].Title)

	from := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	page, err = repo.Find(ctx,
		entity.ListingFilter{Fields: []string{"IT"}, DateFrom: &from, Location: "Cairo"},
		entity.ListingSort{},
		entity.Page{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Frontend Intern", page.Data[0].Title)

	page, err = repo.Find(ctx, entity.ListingFilter{Provider: entity.ProviderLinkedin}, entity.ListingSort{}, entity.Page{Take: 5})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Zero(t, page.Count)
}

func TestFind_PastLastPageKeepsCount(t *testing.T) {
	repo := NewListingRepo()
	ctx := context.Background()
	_, err := repo.InsertBatch(ctx, []entity.Listing{
		listing("Marketing Intern", "Acme", "Cairo", "2026-10-11", entity.ProviderWuzzuf),
		listing("Sales Intern", "Acme", "Cairo", "2026-10-12", entity.ProviderWuzzuf),
		listing("HR Intern", "Acme", "Cairo", "2026-10-13", entity.ProviderWuzzuf),
	})
	require.NoError(t, err)

	page, err := repo.Find(ctx, entity.ListingFilter{}, entity.ListingSort{}, entity.Page{Page: 5, Take: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, 3, page.Count)
}
