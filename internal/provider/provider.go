// Package provider abstracts the mechanism that turns a chapter reference
// into its content: the chapter title, the ordered image URLs, and the URL
// of the next chapter if the site exposes one.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// ChapterRef identifies one chapter. Immutable once created.
type ChapterRef struct {
	URL     string
	Ordinal int
	Title   string
}

// ChapterContent is produced for a single ChapterRef and consumed once.
// An empty NextURL is the candidate end-of-series signal.
type ChapterContent struct {
	Title     string
	ImageURLs []string
	NextURL   string
}

// Provider turns chapter references into chapter content. Implementations
// own a single, stateful fetch mechanism: callers must not issue
// concurrent FetchChapter calls on the same Provider.
type Provider interface {
	FetchChapter(ctx context.Context, ref ChapterRef) (*ChapterContent, error)
	Close() error
}

// Error wraps a failed chapter fetch. Transient errors were already
// retried by the provider's own budget before surfacing; a surfaced
// Error is therefore fatal for the run.
type Error struct {
	URL       string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	kind := "fatal"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("provider: %s error fetching %s: %v", kind, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransient reports whether err is a provider error marked transient.
func IsTransient(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Transient
}
