package chromedp_browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/internfinder/internal/repository"
)

func lifecycle(frame cdp.FrameID, loader cdp.LoaderID, name string) *page.EventLifecycleEvent {
	return &page.EventLifecycleEvent{FrameID: frame, LoaderID: loader, Name: name}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestSession_NetworkIdleIgnoresSubframes(t *testing.T) {
	s := &session{frameID: "main"}
	idle := s.armIdle()

	s.onLifecycle(lifecycle("main", "doc-A", "init"))
	s.onLifecycle(lifecycle("ad-frame", "doc-B", "init"))
	s.onLifecycle(lifecycle("ad-frame", "doc-B", "networkIdle"))
	assert.False(t, isClosed(idle), "subframe idle must not release the wait")

	s.onLifecycle(lifecycle("main", "doc-A", "networkIdle"))
	assert.True(t, isClosed(idle))
}

func TestSession_NetworkIdleOfPreviousDocumentIgnored(t *testing.T) {
	s := &session{frameID: "main"}
	idle := s.armIdle()

	s.onLifecycle(lifecycle("main", "doc-old", "networkIdle"))
	assert.False(t, isClosed(idle))

	s.onLifecycle(lifecycle("main", "doc-new", "init"))
	s.onLifecycle(lifecycle("main", "doc-old", "networkIdle"))
	assert.False(t, isClosed(idle))

	s.onLifecycle(lifecycle("main", "doc-new", "networkIdle"))
	assert.True(t, isClosed(idle))
}

func TestSession_NetworkIdleAfterRearm(t *testing.T) {
	s := &session{frameID: "main"}
	first := s.armIdle()
	s.onLifecycle(lifecycle("main", "doc-1", "init"))
	s.onLifecycle(lifecycle("main", "doc-1", "networkIdle"))
	require.True(t, isClosed(first))

	second := s.armIdle()
	s.onLifecycle(lifecycle("main", "doc-1", "networkIdle"))
	assert.False(t, isClosed(second))
	s.onLifecycle(lifecycle("main", "doc-2", "init"))
	s.onLifecycle(lifecycle("main", "doc-2", "networkIdle"))
	assert.True(t, isClosed(second))
}

func TestWaitIdle_DeadlineIsNavigationTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := waitIdle(make(chan struct{})).Do(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	err = navigationError(ctx, "https://wuzzuf.net/search/jobs", 10*time.Millisecond, err)
	assert.ErrorIs(t, err, repository.ErrNavigationTimeout)
	assert.NotErrorIs(t, err, repository.ErrNavigationFailed)
}

func TestNavigationError(t *testing.T) {
	expired, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want error
	}{
		{"deadline", context.Background(), context.DeadlineExceeded, repository.ErrNavigationTimeout},
		{"expired context", expired, errors.New("net::ERR_ABORTED"), repository.ErrNavigationTimeout},
		{"other failure", context.Background(), errors.New("net::ERR_NAME_NOT_RESOLVED"), repository.ErrNavigationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := navigationError(tt.ctx, "https://eg.indeed.com/jobs", time.Minute, tt.err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
