package chromedp_browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/user/internfinder/internal/repository"
	"go.uber.org/zap"
)

// Options configures every session the browser hands out.
type Options struct {
	Headless          bool
	NavigationTimeout time.Duration
	Proxies           []string
}

// ChromedpBrowser launches one headless Chrome process per session.
type ChromedpBrowser struct {
	opts     Options
	identity *identityRotator
	logger   *zap.Logger
}

// NewChromedpBrowser creates a Browser backed by a local Chrome installation.
func NewChromedpBrowser(opts Options, logger *zap.Logger) *ChromedpBrowser {
	return &ChromedpBrowser{
		opts:     opts,
		identity: newIdentityRotator(opts.Proxies),
		logger:   logger,
	}
}

// NewSession starts a fresh browser with its own profile. The caller must Close it.
func (b *ChromedpBrowser) NewSession(ctx context.Context) (repository.Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(b.identity.UserAgent()),
	)
	if proxy := b.identity.Proxy(); proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(proxy))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(b.logger.Sugar().Debugf))

	s := &session{
		ctx:     tabCtx,
		timeout: b.opts.NavigationTimeout,
		logger:  b.logger,
		close: func() {
			cancelTab()
			cancelAlloc()
		},
	}
	s.listen()

	// The first Run starts the browser; it must not carry a deadline or the
	// browser dies with it.
	if err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
			return err
		}
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.frameID = tree.Frame.ID
		s.mu.Unlock()
		return nil
	})); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: start browser: %v", repository.ErrNavigationFailed, err)
	}
	if err := ctx.Err(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

type session struct {
	ctx     context.Context
	timeout time.Duration
	logger  *zap.Logger

	mu       sync.Mutex
	frameID  cdp.FrameID
	loaderID cdp.LoaderID
	idle     chan struct{}

	closeOnce sync.Once
	close     func()
}

// listen feeds the tab's lifecycle events to onLifecycle.
func (s *session) listen() {
	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok {
			s.onLifecycle(e)
		}
	})
}

// onLifecycle tracks the network-idle event of the main frame's current
// document. Events from subframes are ignored.
func (s *session) onLifecycle(e *page.EventLifecycleEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frameID != "" && e.FrameID != s.frameID {
		return
	}
	switch e.Name {
	case "init":
		s.loaderID = e.LoaderID
	case "networkIdle":
		if s.idle != nil && s.loaderID != "" && e.LoaderID == s.loaderID {
			close(s.idle)
			s.idle = nil
		}
	}
}

func (s *session) armIdle() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaderID = ""
	s.idle = make(chan struct{})
	return s.idle
}

func (s *session) Navigate(ctx context.Context, url string, ready repository.Readiness) error {
	navCtx, cancel := s.bind(ctx, s.timeout)
	defer cancel()

	var idle <-chan struct{}
	if ready.Until == repository.WaitNetworkIdle {
		idle = s.armIdle()
	}

	start := time.Now()
	actions := []chromedp.Action{chromedp.Navigate(url)}
	if idle != nil {
		actions = append(actions, waitIdle(idle))
	}
	if ready.Selector != "" {
		actions = append(actions, chromedp.WaitVisible(ready.Selector, chromedp.ByQuery))
	}

	if err := chromedp.Run(navCtx, actions...); err != nil {
		return navigationError(navCtx, url, s.timeout, err)
	}
	s.logger.Debug("Page ready", zap.String("url", url), zap.Duration("took", time.Since(start)))
	return nil
}

func waitIdle(idle <-chan struct{}) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		select {
		case <-idle:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// navigationError maps a failed navigation run to the repository sentinels.
// An expired navCtx deadline is a timeout even when chromedp reports it as
// another error.
func navigationError(navCtx context.Context, url string, timeout time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(navCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", repository.ErrNavigationTimeout, url, timeout)
	}
	return fmt.Errorf("%w: %s: %v", repository.ErrNavigationFailed, url, err)
}

func (s *session) HTML(ctx context.Context) (string, error) {
	runCtx, cancel := s.bind(ctx, s.timeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("%w: read document: %v", repository.ErrExtractionFailed, err)
	}
	return html, nil
}

func (s *session) ScrollToBottom(ctx context.Context) error {
	runCtx, cancel := s.bind(ctx, s.timeout)
	defer cancel()

	var done bool
	return chromedp.Run(runCtx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight); true`, &done))
}

func (s *session) Visible(ctx context.Context, selector string) (bool, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return false, err
	}
	runCtx, cancel := s.bind(ctx, s.timeout)
	defer cancel()

	expr := fmt.Sprintf(`(() => { const el = document.querySelector(%s); return !!el && el.offsetHeight > 0; })()`, quoted)
	var visible bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(expr, &visible)); err != nil {
		return false, err
	}
	return visible, nil
}

func (s *session) Close() error {
	s.closeOnce.Do(s.close)
	return nil
}

// bind derives a context from the session's tab that also ends when the
// caller's ctx does or the timeout elapses.
func (s *session) bind(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}
