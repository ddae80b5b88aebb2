package entity

import "time"

// UnknownCompany marks a listing whose provider markup had no company element.
const UnknownCompany = "unknown"

// DateLayout is the calendar date format used for DatePosted.
const DateLayout = "2006-01-02"

// Mode is the work arrangement of a listing.
type Mode string

const (
	ModeRemote  Mode = "remote"
	ModeOnsite  Mode = "onsite"
	ModeHybrid  Mode = "hybrid"
	ModeUnknown Mode = "unknown"
)

// Listing mirrors the `listings` PostgreSQL table schema.
type Listing struct {
	URL        string   `json:"url" validate:"required,url"`
	Title      string   `json:"title" validate:"required"`
	Body       string   `json:"body,omitempty"`
	DatePosted string   `json:"datePosted" validate:"required,datetime=2006-01-02"`
	Country    string   `json:"country,omitempty" validate:"omitempty,iso3166_1_alpha2"`
	Company    string   `json:"company,omitempty"`
	Location   string   `json:"location,omitempty"`
	Mode       Mode     `json:"mode" validate:"required,oneof=remote onsite hybrid unknown"`
	Logo       string   `json:"logo,omitempty" validate:"omitempty,url"`
	Fields     []string `json:"fields" validate:"dive,required"`
	Provider   Provider `json:"provider" validate:"required,oneof=Wuzzuf Linkedin Indeed Tanqeeb"`
}

// DedupKey is the compound uniqueness tuple enforced by the store.
type DedupKey struct {
	Title      string
	Location   string
	DatePosted string
	Provider   Provider
	Company    string
}

func (l Listing) DedupKey() DedupKey {
	return DedupKey{
		Title:      l.Title,
		Location:   l.Location,
		DatePosted: l.DatePosted,
		Provider:   l.Provider,
		Company:    l.Company,
	}
}

// RawListing is the field bag a provider crawler extracts from one result card.
type RawListing struct {
	Provider   Provider
	URL        string
	Title      string
	Body       string
	DatePosted string // empty when the card carries no date
	Company    string
	Location   string
	Mode       string
	Logo       string
	Fields     []string
	Country    string
	CrawledAt  time.Time
}
