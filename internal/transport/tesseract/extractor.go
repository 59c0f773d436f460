// Package tesseract implements the page OCR word extractor with gosseract.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strconv"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/piiredact/internal/domain"
	"github.com/kailas-cloud/piiredact/internal/domain/ocr"
)

// client is the subset of *gosseract.Client used by the extractor.
type client interface {
	SetImageFromBytes(data []byte) error
	SetLanguage(langs ...string) error
	SetPageSegMode(mode gosseract.PageSegMode) error
	SetVariable(key gosseract.SettableVariable, value string) error
	GetBoundingBoxes(level gosseract.PageIteratorLevel) ([]gosseract.BoundingBox, error)
	Close() error
}

// Config holds OCR engine settings.
type Config struct {
	Languages   []string
	PageSegMode int
	DPI         int
}

// Extractor runs Tesseract on page images. A fresh client is created per
// call since a gosseract client must not be shared between goroutines.
type Extractor struct {
	languages []string
	psm       gosseract.PageSegMode
	dpi       int
	newClient func() client
	logger    *zap.Logger
}

// New creates an Extractor. A zero PageSegMode selects sparse text, which
// finds words scattered across forms and scanned letters.
func New(cfg Config, logger *zap.Logger) *Extractor {
	psm := gosseract.PSM_SPARSE_TEXT
	if cfg.PageSegMode > 0 {
		psm = gosseract.PageSegMode(cfg.PageSegMode)
	}
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &Extractor{
		languages: langs,
		psm:       psm,
		dpi:       cfg.DPI,
		newClient: func() client { return gosseract.NewClient() },
		logger:    logger,
	}
}

// ExtractWords returns the words Tesseract finds on img in reading order.
func (e *Extractor) ExtractWords(ctx context.Context, img image.Image) ([]ocr.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("ocr: encode page: %w: %w", err, domain.ErrExtractionFailed)
	}

	c := e.newClient()
	defer func() { _ = c.Close() }()

	if err := e.configure(c, buf.Bytes()); err != nil {
		return nil, err
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("ocr: word boxes: %w: %w", err, domain.ErrExtractionFailed)
	}

	words := toWords(boxes)
	e.logger.Debug("OCR page done",
		zap.Int("words", len(words)),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
	)
	return words, nil
}

func (e *Extractor) configure(c client, data []byte) error {
	if err := c.SetImageFromBytes(data); err != nil {
		return fmt.Errorf("ocr: set image: %w: %w", err, domain.ErrExtractionFailed)
	}
	if err := c.SetLanguage(e.languages...); err != nil {
		return fmt.Errorf("ocr: set languages: %w", err)
	}
	if err := c.SetPageSegMode(e.psm); err != nil {
		return fmt.Errorf("ocr: set page segmentation mode: %w", err)
	}
	if e.dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(e.dpi)); err != nil {
			return fmt.Errorf("ocr: set dpi: %w", err)
		}
	}
	return nil
}

// HealthCheck verifies that every configured language has trained data installed.
func (e *Extractor) HealthCheck(_ context.Context) error {
	available, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return fmt.Errorf("ocr: list languages: %w", err)
	}
	return checkLanguages(e.languages, available)
}

func checkLanguages(want, available []string) error {
	have := make(map[string]struct{}, len(available))
	for _, l := range available {
		have[l] = struct{}{}
	}
	for _, l := range want {
		if _, ok := have[l]; !ok {
			return fmt.Errorf("ocr: language %q not installed", l)
		}
	}
	return nil
}

func toWords(boxes []gosseract.BoundingBox) []ocr.Word {
	words := make([]ocr.Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, ocr.Word{
			Text:       b.Word,
			Box:        ocr.FromRect(b.Box),
			Confidence: b.Confidence / 100.0,
		})
	}
	return words
}
