package provider

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/internal/repository"
)

// Indeed has no native recency filter; the normalizer dates its cards.
const indeedSearchURL = "https://eg.indeed.com/jobs?q=internship&l=Egypt"

func NewIndeed(opts Options) ProviderCrawler {
	return &paginator{
		opts: opts.withDefaults(),
		site: pagedSite{
			provider:  entity.ProviderIndeed,
			searchURL: indeedSearchURL,
			ready:     repository.Readiness{Until: repository.WaitNetworkIdle},
			cards:     ".jobsearch-ResultsList > li",
			pager:     "nav .css-tvvxwd a",
			pageQuery: offsetParam("start", 10),
			card:      indeedCard,
		},
	}
}

func indeedCard(s *goquery.Selection) (entity.RawListing, bool) {
	return entity.RawListing{
		URL:      attr(s.Find(".jobTitle a"), "href"),
		Title:    text(s.Find(".jobTitle a span")),
		Body:     text(s.Find(".jobCardShelfContainer .job-snippet li")),
		Company:  text(s.Find("span.companyName")),
		Location: text(s.Find("div.companyLocation")),
	}, true
}
