package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/encoding/charmap"

	"github.com/kailas-cloud/piiredact/internal/domain"
)

// avgGlyphWidth approximates the regular face advance width as a fraction of the font size.
const avgGlyphWidth = 0.5

var regularFont = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// RenderText lays text out on as many pages as needed and returns the PDF bytes.
// Pages are drawn at RasterDPI and imported as image pages.
func (a *Adapter) RenderText(ctx context.Context, s string) ([]byte, error) {
	lines := wrap(s, a.maxLineRunes())
	if len(lines) == 0 {
		lines = []string{""}
	}

	face, err := a.textFace()
	if err != nil {
		return nil, fmt.Errorf("load font: %w: %w", err, domain.ErrRenderingFailed)
	}
	defer face.Close()

	perPage := a.linesPerPage()
	var pages []image.Image
	for start := 0; start < len(lines); start += perPage {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("render text: %w", err)
		}
		end := min(start+perPage, len(lines))
		pages = append(pages, a.drawPage(face, lines[start:end]))
	}
	return a.RenderImages(ctx, pages)
}

func (a *Adapter) textFace() (font.Face, error) {
	f, err := regularFont()
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    a.cfg.FontSize,
		DPI:     RasterDPI,
		Hinting: font.HintingFull,
	})
}

// drawPage renders lines top to bottom on a white page raster.
func (a *Adapter) drawPage(face font.Face, lines []string) *image.Gray {
	page := image.NewGray(image.Rect(0, 0, pointsToPixels(a.cfg.PageWidth), pointsToPixels(a.cfg.PageHeight)))
	draw.Draw(page, page.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	d := &font.Drawer{Dst: page, Src: image.Black, Face: face}
	x := pointsToPixels(a.cfg.Margin)
	y := a.cfg.Margin + a.cfg.FontSize
	for _, line := range lines {
		if line != "" {
			d.Dot = fixed.P(x, pointsToPixels(y))
			d.DrawString(latin1(line))
		}
		y += a.cfg.LineHeight
	}
	return page
}

// RenderImages writes one page per image, sized so that RasterDPI pixels map to one inch.
func (a *Adapter) RenderImages(ctx context.Context, pages []image.Image) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("render images: no pages: %w", domain.ErrRenderingFailed)
	}

	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	readers := make([]io.Reader, 0, len(pages))
	for i, img := range pages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("render images: %w", err)
		}
		var buf bytes.Buffer
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode page %d: %w: %w", i+1, err, domain.ErrRenderingFailed)
		}
		readers = append(readers, &buf)
	}

	imp := pdfcpu.DefaultImportConfig()
	imp.Pos = types.Full
	imp.DPI = RasterDPI

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, readers, imp, pdfConf()); err != nil {
		return nil, fmt.Errorf("write pdf: %w: %w", err, domain.ErrRenderingFailed)
	}
	return out.Bytes(), nil
}

func (a *Adapter) maxLineRunes() int {
	usable := a.cfg.PageWidth - 2*a.cfg.Margin
	n := int(usable / (a.cfg.FontSize * avgGlyphWidth))
	return max(n, 1)
}

func (a *Adapter) linesPerPage() int {
	usable := a.cfg.PageHeight - 2*a.cfg.Margin
	n := int(usable / a.cfg.LineHeight)
	return max(n, 1)
}

func pointsToPixels(pt float64) int {
	return int(pt*RasterDPI/72 + 0.5)
}

// wrap splits s into lines of at most width runes, breaking at spaces
// and hard-breaking words longer than a line. Newlines are kept.
func wrap(s string, width int) []string {
	var out []string
	for _, para := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		var line strings.Builder
		lineLen := 0
		flush := func() {
			out = append(out, line.String())
			line.Reset()
			lineLen = 0
		}
		for _, w := range words {
			for utf8.RuneCountInString(w) > width {
				if lineLen > 0 {
					flush()
				}
				head, tail := splitRunes(w, width)
				out = append(out, head)
				w = tail
			}
			wl := utf8.RuneCountInString(w)
			if lineLen > 0 && lineLen+1+wl > width {
				flush()
			}
			if lineLen > 0 {
				line.WriteByte(' ')
				lineLen++
			}
			line.WriteString(w)
			lineLen += wl
		}
		if lineLen > 0 {
			flush()
		}
	}
	return out
}

func splitRunes(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}

// latin1 limits s to the Latin-1 repertoire of the standard PDF fonts.
// Characters outside it become '?'.
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if _, ok := charmap.ISO8859_1.EncodeRune(r); !ok {
			return '?'
		}
		return r
	}, s)
}
