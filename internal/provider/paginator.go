package provider

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/internal/repository"
	"github.com/user/internfinder/pkg/utils"
	"go.uber.org/zap"
)

// pagedSite describes a provider whose results are split across numbered pages.
type pagedSite struct {
	provider  entity.Provider
	searchURL string
	ready     repository.Readiness
	// cards selects one element per result card.
	cards string
	// pager selects the page-index controls, including the first and last
	// navigation affordances.
	pager string
	// pageQuery rewrites the search URL to point at the given 1-based page.
	pageQuery func(searchURL string, page int) (string, error)
	// card extracts one raw listing; ok is false for cards to skip.
	card func(s *goquery.Selection) (raw entity.RawListing, ok bool)
}

// paginator walks every page of a pagedSite strictly in order.
type paginator struct {
	site pagedSite
	opts Options
}

func (p *paginator) Provider() entity.Provider {
	return p.site.provider
}

func (p *paginator) Crawl(ctx context.Context, session repository.Session) ([]entity.RawListing, error) {
	t := newTracker(p.opts.Logger, p.site.provider)
	limiter := p.opts.limiter()
	crawledAt := p.opts.Now()

	fetch := func(page int, url string) (*goquery.Document, error) {
		t.to(stateNavigating, page)
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		if err := session.Navigate(ctx, url, p.site.ready); err != nil {
			return nil, err
		}
		t.to(stateExtracting, page)
		html, err := session.HTML(ctx)
		if err != nil {
			return nil, err
		}
		return parseDocument(html)
	}

	doc, err := fetch(1, p.site.searchURL)
	if err != nil {
		return nil, t.fail(err)
	}
	listings := p.extract(doc, crawledAt)
	pages := nextPages(doc.Find(p.site.pager), 1)

	for _, page := range pages {
		url, err := p.site.pageQuery(p.site.searchURL, page)
		if err != nil {
			return nil, t.fail(err)
		}
		doc, err := fetch(page, url)
		if err != nil {
			return nil, t.fail(err)
		}
		listings = append(listings, p.extract(doc, crawledAt)...)
	}

	t.to(stateDone, t.page)
	t.to(stateAggregated, t.page)
	p.opts.Logger.Info("Crawl finished",
		zap.String("provider", p.site.provider.String()),
		zap.Int("pages", len(pages)+1),
		zap.Int("listings", len(listings)),
	)
	return listings, nil
}

func (p *paginator) extract(doc *goquery.Document, crawledAt time.Time) []entity.RawListing {
	var out []entity.RawListing
	doc.Find(p.site.cards).Each(func(_ int, s *goquery.Selection) {
		raw, ok := p.site.card(s)
		if !ok || strings.TrimSpace(raw.Title) == "" {
			return
		}
		raw.Provider = p.site.provider
		raw.CrawledAt = crawledAt
		out = append(out, raw)
	})
	return out
}

// nextPages reads the page-index controls, drops the first and last control
// and returns the distinct page numbers after current in ascending order.
func nextPages(controls *goquery.Selection, current int) []int {
	if controls.Length() <= 2 {
		return nil
	}
	seen := make(map[int]struct{})
	var pages []int
	controls.Slice(1, controls.Length()-1).Each(func(_ int, s *goquery.Selection) {
		n, err := strconv.Atoi(strings.TrimSpace(s.Text()))
		if err != nil || n <= current {
			return
		}
		if _, dup := seen[n]; dup {
			return
		}
		seen[n] = struct{}{}
		pages = append(pages, n)
	})
	sort.Ints(pages)
	return pages
}

// offsetParam builds a pageQuery that sets key to (page-1)*step.
func offsetParam(key string, step int) func(string, int) (string, error) {
	return func(searchURL string, page int) (string, error) {
		return utils.WithQueryParam(searchURL, key, (page-1)*step)
	}
}

// pageParam builds a pageQuery that sets key to the page number itself.
func pageParam(key string) func(string, int) (string, error) {
	return func(searchURL string, page int) (string, error) {
		return utils.WithQueryParam(searchURL, key, page)
	}
}
