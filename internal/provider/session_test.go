package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/user/internfinder/internal/repository"
)

// fakeSession serves HTML fixtures keyed by the exact navigated URL.
type fakeSession struct {
	pages     map[string]string
	failures  map[string]error
	navigated []string
	readiness []repository.Readiness
	current   string

	// visibleAfter is the number of scrolls before Visible reports true; -1 never.
	visibleAfter int
	scrolls      int
	closed       bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		pages:    make(map[string]string),
		failures: make(map[string]error),
	}
}

func (f *fakeSession) serve(t *testing.T, url, fixture string) {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", fixture))
	require.NoError(t, err)
	f.pages[url] = string(b)
}

func (f *fakeSession) Navigate(_ context.Context, url string, ready repository.Readiness) error {
	f.navigated = append(f.navigated, url)
	f.readiness = append(f.readiness, ready)
	if err, ok := f.failures[url]; ok {
		return err
	}
	if _, ok := f.pages[url]; !ok {
		return fmt.Errorf("%w: no fixture for %s", repository.ErrNavigationFailed, url)
	}
	f.current = url
	return nil
}

func (f *fakeSession) HTML(context.Context) (string, error) {
	return f.pages[f.current], nil
}

func (f *fakeSession) ScrollToBottom(context.Context) error {
	f.scrolls++
	return nil
}

func (f *fakeSession) Visible(context.Context, string) (bool, error) {
	return f.visibleAfter >= 0 && f.scrolls >= f.visibleAfter, nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}
