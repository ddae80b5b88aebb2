package entity

import "time"

// ListingFilter narrows a Find query. Zero values mean "no constraint".
type ListingFilter struct {
	Search   string
	Provider Provider
	Location string
	Company  string
	Fields   []string
	DateFrom *time.Time
	DateTo   *time.Time
}

// SortOrder is 1 for ascending, -1 for descending and 0 for unsorted.
type SortOrder int

const (
	SortNone SortOrder = 0
	SortAsc  SortOrder = 1
	SortDesc SortOrder = -1
)

type ListingSort struct {
	DatePosted SortOrder
	Location   SortOrder
	Provider   SortOrder
}

// Page is zero-based.
type Page struct {
	Page int
	Take int
}

// ListingPage is the result shape consumed by the read API.
type ListingPage struct {
	Data  []Listing `json:"data"`
	Page  int       `json:"page"`
	Take  int       `json:"take"`
	Count int       `json:"count"`
}
