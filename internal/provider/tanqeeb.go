package provider

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/internal/repository"
)

const tanqeebSearchURL = "https://egypt.tanqeeb.com/ar/jobs/search?keywords=internship&country=213&state=0&search_period=3&order_by=most_recent&search_in=f&lang=all"

const (
	tanqeebTitle = "h5.mb-2.hover-title.fs-16.fs-18-lg"
	tanqeebLogo  = "img.d-block.h-auto.max-w-100px.mx-auto.rounded.w-60px.w-lg-auto"
	tanqeebLink  = ".card-body > a.card-list-item.card-list-item-hover.px-3.px-lg-6.py-6.py-lg-4"
)

func NewTanqeeb(opts Options) ProviderCrawler {
	return &paginator{
		opts: opts.withDefaults(),
		site: pagedSite{
			provider:  entity.ProviderTanqeeb,
			searchURL: tanqeebSearchURL,
			ready:     repository.Readiness{Until: repository.WaitNetworkIdle},
			cards:     "#site-content #jobs_list > div.card-list",
			pager:     "ul.pagination .page-item .page-link",
			pageQuery: pageParam("page_no"),
			card:      tanqeebCard,
		},
	}
}

func tanqeebCard(s *goquery.Selection) (entity.RawListing, bool) {
	logo := s.Find(tanqeebLogo)
	src := attr(logo, "src")
	if src == "" {
		src = attr(logo, "data-src")
	}

	raw := entity.RawListing{
		URL:   attr(s.Find(tanqeebLink), "href"),
		Title: text(s.Find(tanqeebTitle)),
		Body:  text(s.Find("div.mb-4.text-primary-2.h7")),
		Logo:  src,
	}

	// Cards list location, company and contract type; shorter cards omit the company.
	indicators := s.Find("p.h10.text-secondary.mb-0 > span")
	raw.Location = text(indicators.Eq(0))
	if indicators.Length() == 3 {
		raw.Company = text(indicators.Eq(1))
	} else {
		raw.Company = entity.UnknownCompany
	}
	return raw, true
}
