package chromedp_browser

import (
	"math/rand/v2"
	"sync"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
}

// identityRotator picks the user agent and proxy each new session presents.
type identityRotator struct {
	mu         sync.Mutex
	proxies    []string
	userAgents []string
	next       int
	pick       func(n int) int
}

func newIdentityRotator(proxies []string) *identityRotator {
	return &identityRotator{
		proxies:    proxies,
		userAgents: defaultUserAgents,
		pick:       rand.IntN,
	}
}

// Proxy returns the next proxy in round-robin order, or "" when none are configured.
func (r *identityRotator) Proxy() string {
	if len(r.proxies) == 0 {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.proxies[r.next]
	r.next = (r.next + 1) % len(r.proxies)
	return p
}

// UserAgent returns a random user agent.
func (r *identityRotator) UserAgent() string {
	if len(r.userAgents) == 0 {
		return ""
	}
	return r.userAgents[r.pick(len(r.userAgents))]
}
