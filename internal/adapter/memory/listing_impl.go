package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/internal/repository"
)

// ListingRepoImpl is an in-process ListingRepository with the same compound
// uniqueness guarantee as the PostgreSQL table.
type ListingRepoImpl struct {
	mu       sync.RWMutex
	listings []entity.Listing
	index    map[entity.DedupKey]struct{}
}

// NewListingRepo creates a new, empty instance of ListingRepoImpl.
func NewListingRepo() *ListingRepoImpl {
	return &ListingRepoImpl{index: make(map[entity.DedupKey]struct{})}
}

func (r *ListingRepoImpl) Ping(ctx context.Context) error {
	return ctx.Err()
}

// InsertBatch appends every listing whose dedup key is not yet stored.
func (r *ListingRepoImpl) InsertBatch(ctx context.Context, listings []entity.Listing) (repository.InsertResult, error) {
	var result repository.InsertResult
	for _, l := range listings {
		if _, err := time.Parse(entity.DateLayout, l.DatePosted); err != nil {
			return result, fmt.Errorf("listing %q: date_posted: %w", l.URL, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range listings {
		key := l.DedupKey()
		if _, dup := r.index[key]; dup {
			result.Duplicates++
			continue
		}
		l.Fields = append([]string(nil), l.Fields...)
		r.index[key] = struct{}{}
		r.listings = append(r.listings, l)
		result.Inserted++
	}
	return result, nil
}

// Len returns the number of stored rows.
func (r *ListingRepoImpl) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listings)
}

// All returns a copy of every stored row in insertion order.
func (r *ListingRepoImpl) All() []entity.Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entity.Listing(nil), r.listings...)
}

func (r *ListingRepoImpl) Find(ctx context.Context, filter entity.ListingFilter, order entity.ListingSort, page entity.Page) (*entity.ListingPage, error) {
	r.mu.RLock()
	var matched []entity.Listing
	for _, l := range r.listings {
		if matches(l, filter) {
			matched = append(matched, l)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if c := compare(matched[i].DatePosted, matched[j].DatePosted, order.DatePosted); c != 0 {
			return c < 0
		}
		if c := compare(matched[i].Location, matched[j].Location, order.Location); c != 0 {
			return c < 0
		}
		return compare(string(matched[i].Provider), string(matched[j].Provider), order.Provider) < 0
	})

	result := &entity.ListingPage{Data: []entity.Listing{}, Page: page.Page, Take: page.Take, Count: len(matched)}
	if page.Take <= 0 {
		result.Data = append(result.Data, matched...)
		return result, nil
	}
	start := page.Page * page.Take
	if start >= len(matched) {
		return result, nil
	}
	end := start + page.Take
	if end > len(matched) {
		end = len(matched)
	}
	result.Data = append(result.Data, matched[start:end]...)
	return result, nil
}

func compare(a, b string, order entity.SortOrder) int {
	switch order {
	case entity.SortAsc:
		return strings.Compare(a, b)
	case entity.SortDesc:
		return strings.Compare(b, a)
	}
	return 0
}

func matches(l entity.Listing, f entity.ListingFilter) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(f.Search)) {
		return false
	}
	if f.Provider != "" && l.Provider != f.Provider {
		return false
	}
	if f.Location != "" && l.Location != f.Location {
		return false
	}
	if f.Company != "" && l.Company != f.Company {
		return false
	}
	if len(f.Fields) > 0 && !overlaps(l.Fields, f.Fields) {
		return false
	}
	if f.DateFrom != nil || f.DateTo != nil {
		posted, err := time.Parse(entity.DateLayout, l.DatePosted)
		if err != nil {
			return false
		}
		if f.DateFrom != nil && posted.Before(truncateDay(*f.DateFrom)) {
			return false
		}
		if f.DateTo != nil && posted.After(*f.DateTo) {
			return false
		}
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func overlaps(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func (r *ListingRepoImpl) DistinctCompanies(ctx context.Context) ([]string, error) {
	return r.distinct(func(l entity.Listing) []string { return []string{l.Company} }), nil
}

func (r *ListingRepoImpl) DistinctLocations(ctx context.Context) ([]string, error) {
	return r.distinct(func(l entity.Listing) []string { return []string{l.Location} }), nil
}

func (r *ListingRepoImpl) DistinctProviders(ctx context.Context) ([]string, error) {
	return r.distinct(func(l entity.Listing) []string { return []string{string(l.Provider)} }), nil
}

func (r *ListingRepoImpl) DistinctFields(ctx context.Context) ([]string, error) {
	return r.distinct(func(l entity.Listing) []string { return l.Fields }), nil
}

func (r *ListingRepoImpl) distinct(values func(entity.Listing) []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]struct{})
	for _, l := range r.listings {
		for _, v := range values(l) {
			if v != "" {
				set[v] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
