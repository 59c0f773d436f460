package document

import (
	"context"
	"image"

	domdoc "github.com/kailas-cloud/piiredact/internal/domain/document"
	"github.com/kailas-cloud/piiredact/internal/usecase/page"
	"github.com/kailas-cloud/piiredact/internal/usecase/text"
)

// TextRedactor redacts free text.
type TextRedactor interface {
	Redact(ctx context.Context, s string) (text.Result, error)
}

// PageRedactor redacts one page image. pageIndex is 0-based.
type PageRedactor interface {
	Redact(ctx context.Context, pageIndex int, img image.Image, padding int) (page.Result, error)
}

// PDF reads and writes PDF containers.
type PDF interface {
	// ExtractText returns the text layer of every page, in page order.
	ExtractText(ctx context.Context, data []byte) ([]string, error)
	// Rasterize returns one image per page, in page order.
	Rasterize(ctx context.Context, data []byte) ([]image.Image, error)
	// RenderText lays text out on as many pages as needed.
	RenderText(ctx context.Context, s string) ([]byte, error)
	// RenderImages writes one page per image.
	RenderImages(ctx context.Context, pages []image.Image) ([]byte, error)
}

// ImageCodec decodes and encodes single raster images.
type ImageCodec interface {
	Decode(data []byte) (image.Image, domdoc.Format, error)
	// Encode writes img in format, or in the closest supported format.
	Encode(img image.Image, format domdoc.Format) ([]byte, domdoc.Format, error)
}
