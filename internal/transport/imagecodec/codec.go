// Package imagecodec decodes uploaded raster images and re-encodes redacted
// pages in the same container where Go has an encoder for it.
package imagecodec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/kailas-cloud/piiredact/internal/domain"
	domdoc "github.com/kailas-cloud/piiredact/internal/domain/document"
)

// DefaultJPEGQuality is used when re-encoding JPEG uploads.
const DefaultJPEGQuality = 90

// Codec implements the document pipeline's image container contract.
type Codec struct {
	jpegQuality int
}

// New creates a Codec. Quality outside 1..100 falls back to DefaultJPEGQuality.
func New(jpegQuality int) *Codec {
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}
	return &Codec{jpegQuality: jpegQuality}
}

// Decode sniffs and decodes a single raster image.
func (c *Codec) Decode(data []byte) (image.Image, domdoc.Format, error) {
	format := domdoc.Detect(data)
	r := bytes.NewReader(data)

	var (
		img image.Image
		err error
	)
	switch format {
	case domdoc.PNG:
		img, err = png.Decode(r)
	case domdoc.JPEG:
		img, err = jpeg.Decode(r)
	case domdoc.TIFF:
		img, err = tiff.Decode(r)
	case domdoc.BMP:
		img, err = bmp.Decode(r)
	case domdoc.WEBP:
		img, err = webp.Decode(r)
	default:
		return nil, domdoc.Unknown, fmt.Errorf("image format %q: %w", format, domain.ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, format, fmt.Errorf("decode %s: %w: %w", format, err, domain.ErrExtractionFailed)
	}
	return img, format, nil
}

// Encode writes img in format. WEBP has no Go encoder and is written as PNG;
// the returned format is the one actually used.
func (c *Codec) Encode(img image.Image, format domdoc.Format) ([]byte, domdoc.Format, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case domdoc.JPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.jpegQuality})
	case domdoc.TIFF:
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	case domdoc.BMP:
		err = bmp.Encode(&buf, img)
	case domdoc.PNG, domdoc.WEBP:
		format = domdoc.PNG
		err = png.Encode(&buf, img)
	default:
		return nil, format, fmt.Errorf("encode %q: %w", format, domain.ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, format, fmt.Errorf("encode %s: %w: %w", format, err, domain.ErrRenderingFailed)
	}
	return buf.Bytes(), format, nil
}
