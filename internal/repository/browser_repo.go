package repository

import "context"

// WaitUntil selects the page readiness signal a navigation blocks on.
type WaitUntil int

const (
	// WaitLoad waits for the document load event.
	WaitLoad WaitUntil = iota
	// WaitNetworkIdle waits until the document's network activity has settled.
	WaitNetworkIdle
)

// Readiness describes when a navigated page is considered fully loaded.
type Readiness struct {
	Until WaitUntil
	// Selector, when set, must also become visible before the page is ready.
	Selector string
}

// Session is one exclusive browser session. It is not safe for concurrent use.
type Session interface {
	// Navigate loads url and blocks until the readiness condition holds or the
	// per-navigation timeout elapses.
	Navigate(ctx context.Context, url string, ready Readiness) error
	// HTML returns the current serialized DOM.
	HTML(ctx context.Context) (string, error)
	// ScrollToBottom scrolls the viewport to the end of the document.
	ScrollToBottom(ctx context.Context) error
	// Visible reports whether selector matches an element with a non-zero height.
	Visible(ctx context.Context, selector string) (bool, error)
	// Close releases the session and the browser behind it.
	Close() error
}

// Browser hands out fresh isolated sessions.
type Browser interface {
	NewSession(ctx context.Context) (Session, error)
}
