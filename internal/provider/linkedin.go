package provider

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/internal/repository"
	"go.uber.org/zap"
)

const (
	linkedinSearchURL = "https://www.linkedin.com/jobs/search?keywords=Internship&f_TPR=r86400&location=Egypt"
	// linkedinEndOfResults appears once infinite scroll has loaded every card.
	linkedinEndOfResults = ".see-more-jobs__viewed-all p"
)

// linkedinCrawler loads a single infinitely scrolling results page.
type linkedinCrawler struct {
	opts Options
}

func NewLinkedin(opts Options) ProviderCrawler {
	return &linkedinCrawler{opts: opts.withDefaults()}
}

func (c *linkedinCrawler) Provider() entity.Provider {
	return entity.ProviderLinkedin
}

func (c *linkedinCrawler) Crawl(ctx context.Context, session repository.Session) ([]entity.RawListing, error) {
	t := newTracker(c.opts.Logger, entity.ProviderLinkedin)
	limiter := c.opts.limiter()
	crawledAt := c.opts.Now()

	t.to(stateNavigating, 1)
	if err := limiter.Wait(ctx); err != nil {
		return nil, t.fail(err)
	}
	if err := session.Navigate(ctx, linkedinSearchURL, repository.Readiness{Until: repository.WaitLoad}); err != nil {
		return nil, t.fail(err)
	}

	scrolls, reachedEnd := 0, false
	for ; scrolls < c.opts.MaxScrolls; scrolls++ {
		visible, err := session.Visible(ctx, linkedinEndOfResults)
		if err != nil {
			return nil, t.fail(err)
		}
		if visible {
			reachedEnd = true
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil, t.fail(err)
		}
		if err := session.ScrollToBottom(ctx); err != nil {
			return nil, t.fail(err)
		}
	}
	if !reachedEnd {
		c.opts.Logger.Warn("End of results not reached, extracting what loaded",
			zap.String("provider", entity.ProviderLinkedin.String()),
			zap.Int("scrolls", scrolls),
		)
	}

	t.to(stateExtracting, 1)
	html, err := session.HTML(ctx)
	if err != nil {
		return nil, t.fail(err)
	}
	doc, err := parseDocument(html)
	if err != nil {
		return nil, t.fail(err)
	}

	var listings []entity.RawListing
	doc.Find(".jobs-search__results-list > li").Each(func(_ int, s *goquery.Selection) {
		raw := linkedinCard(s)
		if raw.Title == "" {
			return
		}
		raw.Provider = entity.ProviderLinkedin
		raw.CrawledAt = crawledAt
		listings = append(listings, raw)
	})

	t.to(stateDone, 1)
	t.to(stateAggregated, 1)
	c.opts.Logger.Info("Crawl finished",
		zap.String("provider", entity.ProviderLinkedin.String()),
		zap.Int("scrolls", scrolls),
		zap.Int("listings", len(listings)),
	)
	return listings, nil
}

func linkedinCard(s *goquery.Selection) entity.RawListing {
	link := s.Find(".base-search-card--link a.base-card__full-link, a.base-card__full-link")
	logo := s.Find(".search-entity-media > img")
	src := attr(logo, "src")
	if src == "" {
		src = attr(logo, "data-delayed-url")
	}

	return entity.RawListing{
		URL:        attr(link, "href"),
		Title:      strings.TrimSpace(link.First().Find("span").First().Text()),
		Company:    text(s.Find("h4.base-search-card__subtitle a")),
		Location:   text(s.Find("span.job-search-card__location")),
		Logo:       src,
		DatePosted: attr(s.Find("time.job-search-card__listdate, time.job-search-card__listdate--new"), "datetime"),
	}
}
