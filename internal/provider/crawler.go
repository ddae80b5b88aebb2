package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ProviderCrawler extracts the raw result cards of one job board.
type ProviderCrawler interface {
	Provider() entity.Provider
	// Crawl drives the given session through every result page and returns
	// the cards in page order. The caller owns the session.
	Crawl(ctx context.Context, session repository.Session) ([]entity.RawListing, error)
}

// Options are shared by every crawler in a registry.
type Options struct {
	Logger *zap.Logger
	// PageDelay is the minimum spacing between browser actions of one crawl.
	PageDelay time.Duration
	// MaxScrolls bounds infinite-scroll providers.
	MaxScrolls int
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.MaxScrolls < 1 {
		o.MaxScrolls = 40
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// limiter returns a fresh pacing limiter; each crawl has its own.
func (o Options) limiter() *rate.Limiter {
	if o.PageDelay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(o.PageDelay), 1)
}

// Registry resolves a provider to its crawler.
type Registry struct {
	crawlers map[entity.Provider]ProviderCrawler
}

// NewRegistry builds the crawlers of every supported provider.
func NewRegistry(opts Options) *Registry {
	opts = opts.withDefaults()
	return NewRegistryOf(
		NewWuzzuf(opts),
		NewLinkedin(opts),
		NewIndeed(opts),
		NewTanqeeb(opts),
	)
}

// NewRegistryOf builds a registry from explicit crawlers.
func NewRegistryOf(crawlers ...ProviderCrawler) *Registry {
	r := &Registry{crawlers: make(map[entity.Provider]ProviderCrawler, len(crawlers))}
	for _, c := range crawlers {
		r.crawlers[c.Provider()] = c
	}
	return r
}

// Get returns the crawler for p or an error wrapping entity.ErrUnknownProvider.
func (r *Registry) Get(p entity.Provider) (ProviderCrawler, error) {
	c, ok := r.crawlers[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownProvider, p)
	}
	return c, nil
}

type crawlState int

const (
	stateIdle crawlState = iota
	stateNavigating
	stateExtracting
	stateDone
	stateAggregated
	stateFailed
)

func (s crawlState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateNavigating:
		return "navigating"
	case stateExtracting:
		return "extracting"
	case stateDone:
		return "done"
	case stateAggregated:
		return "aggregated"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// tracker records the lifecycle of a single crawl.
type tracker struct {
	logger *zap.Logger
	state  crawlState
	page   int
}

func newTracker(logger *zap.Logger, p entity.Provider) *tracker {
	return &tracker{logger: logger.With(zap.String("provider", p.String())), state: stateIdle}
}

func (t *tracker) to(state crawlState, page int) {
	t.logger.Debug("Crawl state changed",
		zap.Stringer("from", t.state),
		zap.Stringer("to", state),
		zap.Int("page", page),
	)
	t.state = state
	t.page = page
}

// fail moves the crawl to the failed state and annotates err with the page it happened on.
func (t *tracker) fail(err error) error {
	page := t.page
	t.to(stateFailed, page)
	return fmt.Errorf("page %d: %w", page, err)
}

func parseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrExtractionFailed, err)
	}
	return doc, nil
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.First().Text())
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.First().Attr(name)
	return strings.TrimSpace(v)
}
