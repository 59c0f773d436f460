package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRecognitionUnavailable signals that the entity recognizer cannot serve requests.
	ErrRecognitionUnavailable = errors.New("entity recognition unavailable")
	// ErrExtractionFailed signals that text or OCR extraction from a document failed.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrRenderingFailed signals that the redacted output could not be produced.
	ErrRenderingFailed = errors.New("rendering failed")

	// ErrInvalidInput signals a malformed request payload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedFormat signals an input container that cannot be processed.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrPayloadTooLarge signals an input exceeding the configured size limit.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)

// PageError attaches the failing page index to a pipeline error.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page+1, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// NewPageError wraps err with the zero-based page index.
func NewPageError(page int, err error) error {
	return &PageError{Page: page, Err: err}
}
