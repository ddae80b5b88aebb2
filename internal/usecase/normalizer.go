package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/pkg/utils"
)

var (
	ErrMissingTitle = errors.New("listing has no title")
	ErrMissingURL   = errors.New("listing has no url")
)

// assumedAge backdates listings whose card carries no date.
const assumedAge = 24 * time.Hour

var dateLayouts = []string{entity.DateLayout, time.RFC3339, "2006-01-02T15:04:05"}

// Normalize turns a provider field bag into a listing candidate. It performs
// no I/O and returns the same output for the same input.
func Normalize(raw entity.RawListing) (entity.Listing, error) {
	info, ok := raw.Provider.Info()
	if !ok {
		return entity.Listing{}, fmt.Errorf("%w: %q", entity.ErrUnknownProvider, raw.Provider)
	}

	title := utils.CleanText(raw.Title)
	if title == "" {
		return entity.Listing{}, ErrMissingTitle
	}
	link, err := utils.ToAbsoluteURL(info.BaseURL, raw.URL)
	if err != nil {
		return entity.Listing{}, fmt.Errorf("url %q: %w", raw.URL, err)
	}
	if link == "" {
		return entity.Listing{}, ErrMissingURL
	}

	logo, err := utils.ToAbsoluteURL(info.BaseURL, raw.Logo)
	if err != nil {
		logo = utils.CleanText(raw.Logo)
	}

	country := strings.ToUpper(utils.CleanText(raw.Country))
	if country == "" {
		country = info.Country
	}

	return entity.Listing{
		URL:        link,
		Title:      title,
		Body:       utils.CleanText(raw.Body),
		DatePosted: datePosted(raw.DatePosted, raw.CrawledAt),
		Country:    country,
		Company:    company(raw.Company),
		Location:   utils.CleanText(raw.Location),
		Mode:       mode(raw.Mode),
		Logo:       logo,
		Fields:     utils.SplitTags(raw.Fields),
		Provider:   raw.Provider,
	}, nil
}

// NormalizeAll normalizes every candidate, preserving order. Any failure
// fails the whole set.
func NormalizeAll(raws []entity.RawListing) ([]entity.Listing, error) {
	listings := make([]entity.Listing, 0, len(raws))
	var errs []error
	for i, raw := range raws {
		l, err := Normalize(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("candidate %d: %w", i, err))
			continue
		}
		listings = append(listings, l)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return listings, nil
}

func company(s string) string {
	s = strings.Trim(utils.CleanText(s), "-–— ")
	if s == "" {
		return entity.UnknownCompany
	}
	return s
}

func mode(s string) entity.Mode {
	s = strings.ToLower(utils.CleanText(s))
	switch s {
	case "":
		return entity.ModeUnknown
	case "remote", "work from home":
		return entity.ModeRemote
	case "on-site", "onsite", "on site":
		return entity.ModeOnsite
	case "hybrid":
		return entity.ModeHybrid
	}
	// Anything else is left for the validator to reject.
	return entity.Mode(s)
}

// datePosted formats a card date as a calendar date. Unparseable values pass
// through untouched; missing ones fall back to the day before the crawl.
func datePosted(s string, crawledAt time.Time) string {
	s = utils.CleanText(s)
	if s == "" {
		return crawledAt.Add(-assumedAge).Format(entity.DateLayout)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(entity.DateLayout)
		}
	}
	return s
}
