package repository

import "errors"

var (
	// ErrNavigationTimeout is returned when a page does not signal readiness in time.
	ErrNavigationTimeout = errors.New("navigation timed out")
	// ErrNavigationFailed is returned when a page could not be loaded at all.
	ErrNavigationFailed = errors.New("navigation failed")
	// ErrExtractionFailed is returned when the loaded DOM could not be read or parsed.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrQueueEmpty is returned by Dequeue when no job arrived within the wait.
	ErrQueueEmpty = errors.New("queue is empty")
	// ErrStatusNotFound is returned when a provider has no recorded crawl status.
	ErrStatusNotFound = errors.New("crawl status not found")
)
