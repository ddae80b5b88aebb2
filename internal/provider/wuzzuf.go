package provider

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/internal/repository"
)

const wuzzufSearchURL = "https://wuzzuf.net/search/jobs/?filters[post_date][0]=within_24_hours&q=intern"

// NewWuzzuf crawls Wuzzuf internships posted within the last 24 hours.
func NewWuzzuf(opts Options) ProviderCrawler {
	return &paginator{
		opts: opts.withDefaults(),
		site: pagedSite{
			provider:  entity.ProviderWuzzuf,
			searchURL: wuzzufSearchURL,
			ready:     repository.Readiness{Until: repository.WaitNetworkIdle},
			cards:     ".css-1gatmva",
			pager:     ".ezfki8j0",
			pageQuery: offsetParam("start", 1),
			card:      wuzzufCard,
		},
	}
}

func wuzzufCard(s *goquery.Selection) (entity.RawListing, bool) {
	links := s.Find("a.css-o171kl")
	title := links.First()

	// The first link is the title; the rest are the tag chips.
	var tags []string
	links.Slice(1, goquery.ToEnd).Each(func(_ int, tag *goquery.Selection) {
		tags = append(tags, tag.Text())
	})

	return entity.RawListing{
		URL:      attr(title, "href"),
		Title:    text(title),
		Company:  text(s.Find(".css-17s97q8")),
		Location: text(s.Find(".css-5wys0k")),
		Logo:     attr(s.Find(".css-17095x3"), "src"),
		Mode:     modeTag(tags),
		Fields:   tags,
	}, true
}

// modeTag returns the first tag naming a work arrangement.
func modeTag(tags []string) string {
	for _, tag := range tags {
		v := strings.Trim(strings.TrimSpace(tag), "·• ")
		switch strings.ToLower(v) {
		case "remote", "on-site", "onsite", "hybrid":
			return v
		}
	}
	return ""
}
