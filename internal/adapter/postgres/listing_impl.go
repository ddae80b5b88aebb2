package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/internal/repository"
)

const insertListingQuery = `
	INSERT INTO listings (url, title, body, date_posted, country, company, location, mode, logo, fields, provider)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (title, location, date_posted, provider, company) DO NOTHING;
`

const listingColumns = `url, title, body, date_posted, country, company, location, mode, logo, fields, provider`

// ListingRepoImpl provides a concrete implementation for the ListingRepository interface using PostgreSQL.
type ListingRepoImpl struct {
	db *pgxpool.Pool
}

// NewListingRepo creates a new instance of ListingRepoImpl.
func NewListingRepo(db *pgxpool.Pool) *ListingRepoImpl {
	return &ListingRepoImpl{db: db}
}

func (r *ListingRepoImpl) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// InsertBatch sends every listing in one round trip. Rows that collide with
// the compound unique index are skipped individually by ON CONFLICT DO NOTHING.
func (r *ListingRepoImpl) InsertBatch(ctx context.Context, listings []entity.Listing) (repository.InsertResult, error) {
	var result repository.InsertResult
	if len(listings) == 0 {
		return result, nil
	}

	batch := &pgx.Batch{}
	for _, l := range listings {
		posted, err := time.Parse(entity.DateLayout, l.DatePosted)
		if err != nil {
			return result, fmt.Errorf("listing %q: date_posted: %w", l.URL, err)
		}
		fields := l.Fields
		if fields == nil {
			fields = []string{}
		}
		batch.Queue(insertListingQuery,
			l.URL, l.Title, l.Body, posted, l.Country, l.Company, l.Location,
			string(l.Mode), l.Logo, fields, string(l.Provider),
		)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for i := range listings {
		tag, err := br.Exec()
		if err != nil {
			return result, fmt.Errorf("insert listing %d of %d: %w", i+1, len(listings), err)
		}
		if tag.RowsAffected() == 1 {
			result.Inserted++
		} else {
			result.Duplicates++
		}
	}
	return result, br.Close()
}

// Find returns one page of listings matching filter. Count is the total number
// of matches, not the page length.
func (r *ListingRepoImpl) Find(ctx context.Context, filter entity.ListingFilter, sort entity.ListingSort, page entity.Page) (*entity.ListingPage, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		where = append(where, "title ILIKE '%' || "+arg(filter.Search)+"::text || '%'")
	}
	if filter.Provider != "" {
		where = append(where, "provider = "+arg(string(filter.Provider)))
	}
	if filter.Location != "" {
		where = append(where, "location = "+arg(filter.Location))
	}
	if filter.Company != "" {
		where = append(where, "company = "+arg(filter.Company))
	}
	if len(filter.Fields) > 0 {
		where = append(where, "fields && "+arg(filter.Fields))
	}
	if filter.DateFrom != nil {
		where = append(where, "date_posted >= "+arg(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		where = append(where, "date_posted <= "+arg(*filter.DateTo))
	}

	var whereClause string
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	result := &entity.ListingPage{Data: []entity.Listing{}, Page: page.Page, Take: page.Take}
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM listings"+whereClause, args...).Scan(&result.Count); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT " + listingColumns + " FROM listings" + whereClause)
	b.WriteString(orderBy(sort))
	if page.Take > 0 {
		b.WriteString(" LIMIT " + arg(page.Take) + " OFFSET " + arg(page.Page*page.Take))
	}

	rows, err := r.db.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l      entity.Listing
			posted time.Time
			mode   string
			prov   string
		)
		if err := rows.Scan(&l.URL, &l.Title, &l.Body, &posted, &l.Country, &l.Company,
			&l.Location, &mode, &l.Logo, &l.Fields, &prov); err != nil {
			return nil, err
		}
		l.DatePosted = posted.Format(entity.DateLayout)
		l.Mode = entity.Mode(mode)
		l.Provider = entity.Provider(prov)
		result.Data = append(result.Data, l)
	}
	return result, rows.Err()
}

// orderBy always ends with id so that pages are stable.
func orderBy(sort entity.ListingSort) string {
	var keys []string
	add := func(col string, order entity.SortOrder) {
		switch order {
		case entity.SortAsc:
			keys = append(keys, col+" ASC")
		case entity.SortDesc:
			keys = append(keys, col+" DESC")
		}
	}
	add("date_posted", sort.DatePosted)
	add("location", sort.Location)
	add("provider", sort.Provider)
	keys = append(keys, "id ASC")
	return " ORDER BY " + strings.Join(keys, ", ")
}

func (r *ListingRepoImpl) DistinctCompanies(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT company FROM listings WHERE company <> '' ORDER BY company`)
}

func (r *ListingRepoImpl) DistinctLocations(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT location FROM listings WHERE location <> '' ORDER BY location`)
}

func (r *ListingRepoImpl) DistinctProviders(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT provider FROM listings ORDER BY provider`)
}

func (r *ListingRepoImpl) DistinctFields(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT field FROM listings, unnest(fields) AS field WHERE field <> '' ORDER BY field`)
}

func (r *ListingRepoImpl) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}
