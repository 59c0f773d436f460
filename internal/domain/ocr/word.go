package ocr

import (
	"image"
	"strings"
)

// Box is an axis-aligned pixel rectangle in page-image coordinates.
type Box struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// FromRect converts an image rectangle to a Box.
func FromRect(r image.Rectangle) Box {
	return Box{Left: r.Min.X, Top: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Rect returns the box as an image rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Left+b.Width, b.Top+b.Height)
}

// Pad grows the box by p pixels on every side and clips the result to bounds.
func (b Box) Pad(p int, bounds image.Rectangle) image.Rectangle {
	r := image.Rect(b.Left-p, b.Top-p, b.Left+b.Width+p, b.Top+b.Height+p)
	return r.Intersect(bounds)
}

// Word is one OCR-recognized token with its bounding box.
type Word struct {
	Text       string
	Box        Box
	Confidence float64
	// PageIndex is the 0-based page the word was read from.
	PageIndex int
}

// IsBlank reports whether the word carries no visible text.
func (w Word) IsBlank() bool {
	return strings.TrimSpace(w.Text) == ""
}
