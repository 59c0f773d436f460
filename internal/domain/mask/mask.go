// Package mask paints opaque rectangles over redacted words of a page image.
package mask

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/kailas-cloud/piiredact/internal/domain/ocr"
)

// DefaultPadding is the pixel margin added around each redacted word.
const DefaultPadding = 5

// Renderer masks word boxes on page images. It is immutable and safe for concurrent use.
type Renderer struct {
	padding int
	fill    color.Color
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFill sets the mask color. The default is opaque black.
func WithFill(c color.Color) Option {
	return func(r *Renderer) { r.fill = c }
}

// NewRenderer creates a renderer with the given padding; negative padding is treated as zero.
func NewRenderer(padding int, opts ...Option) *Renderer {
	if padding < 0 {
		padding = 0
	}
	r := &Renderer{padding: padding, fill: color.Black}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Padding returns the configured padding.
func (r *Renderer) Padding() int { return r.padding }

// Rects returns the padded rectangles of boxes clipped to bounds, skipping empty ones.
func (r *Renderer) Rects(boxes []ocr.Box, bounds image.Rectangle) []image.Rectangle {
	out := make([]image.Rectangle, 0, len(boxes))
	for _, b := range boxes {
		if rect := b.Pad(r.padding, bounds); !rect.Empty() {
			out = append(out, rect)
		}
	}
	return out
}

// Render returns a copy of src with every box painted over.
// The covered pixels are replaced, not blended.
func (r *Renderer) Render(src image.Image, boxes []ocr.Box) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)

	fill := image.NewUniform(r.fill)
	for _, rect := range r.Rects(boxes, bounds) {
		draw.Draw(dst, rect, fill, image.Point{}, draw.Src)
	}
	return dst
}
