// Package piiredact redacts personally identifiable information from free
// text, PDF documents and scanned images, in process.
package piiredact

import (
	"context"
	"image"

	"github.com/kailas-cloud/piiredact/internal/domain"
)

// Errors returned by Client operations. Test with errors.Is.
var (
	ErrRecognitionUnavailable = domain.ErrRecognitionUnavailable
	ErrExtractionFailed       = domain.ErrExtractionFailed
	ErrRenderingFailed        = domain.ErrRenderingFailed
	ErrUnsupportedFormat      = domain.ErrUnsupportedFormat
)

// Entity labels understood by the pipeline. Other labels are ignored.
const (
	LabelPerson       = string(domain.LabelPerson)
	LabelPlace        = string(domain.LabelPlace)
	LabelOrganization = string(domain.LabelOrganization)
	LabelFacility     = string(domain.LabelFacility)
	LabelLocation     = string(domain.LabelLocation)
)

// Entity is a named entity found by a Recognizer. Start and End are byte
// offsets into the recognized text, End exclusive.
type Entity struct {
	Start int
	End   int
	Label string
}

// Recognizer finds named entities in text. It must be safe for concurrent use.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// Word is one OCR token with its bounding box in page-image pixels.
type Word struct {
	Text       string
	Box        image.Rectangle
	Confidence float64
}

// OCR extracts words from a page image in reading order.
type OCR interface {
	ExtractWords(ctx context.Context, img image.Image) ([]Word, error)
}

// TextResult is a redacted text.
type TextResult struct {
	Text string
	// Detections counts inserted placeholders by kind: email, address, name, location.
	Detections map[string]int
}

// Redactions returns the number of inserted placeholders.
func (r TextResult) Redactions() int {
	n := 0
	for _, c := range r.Detections {
		n += c
	}
	return n
}

// DocumentResult is a redacted document in the container format of its input.
type DocumentResult struct {
	Data []byte
	// Format is pdf, png, jpeg, tiff or bmp.
	Format string
	// Mode is "text" when a PDF was redacted through its text layer, "image" otherwise.
	Mode       string
	Pages      int
	Redactions int
}
