package piiredact

import (
	"context"
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/kailas-cloud/piiredact/internal/domain"
	"github.com/kailas-cloud/piiredact/internal/domain/mask"
	"github.com/kailas-cloud/piiredact/internal/domain/ocr"
	"github.com/kailas-cloud/piiredact/internal/transport/imagecodec"
	"github.com/kailas-cloud/piiredact/internal/transport/pdf"
	"github.com/kailas-cloud/piiredact/internal/transport/tesseract"
	documentuc "github.com/kailas-cloud/piiredact/internal/usecase/document"
	pageuc "github.com/kailas-cloud/piiredact/internal/usecase/page"
	"github.com/kailas-cloud/piiredact/internal/usecase/recognition"
	textuc "github.com/kailas-cloud/piiredact/internal/usecase/text"
)

// Client redacts text and documents. It is safe for concurrent use.
type Client struct {
	recognizer *recognition.InstrumentedRecognizer
	text       *textuc.Service
	documents  *documentuc.Service
	pdf        *pdf.Adapter
}

// New creates a Client. A recognizer is required: use WithRecognizer,
// WithSpacy or WithOpenAI.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		pipeline: domain.DefaultPipelineConfig(),
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.recognizer == nil {
		return nil, errors.New("piiredact: recognizer required (use WithRecognizer, WithSpacy or WithOpenAI)")
	}

	var words pageuc.WordExtractor
	if cfg.ocr != nil {
		words = &ocrAdapter{inner: cfg.ocr}
	} else {
		words = tesseract.New(tesseract.Config{Languages: cfg.languages}, cfg.logger)
	}

	var maskOpts []mask.Option
	if cfg.maskColor != nil {
		maskOpts = append(maskOpts, mask.WithFill(cfg.maskColor))
	}

	recognizer := recognition.NewInstrumentedRecognizer(cfg.recognizer, cfg.provider, cfg.logger)
	pdfAdapter := pdf.New(pdf.DefaultConfig(), cfg.logger)
	text := textuc.New(recognizer, cfg.logger)
	pages := pageuc.New(words, recognizer, cfg.logger, maskOpts...)
	docs := documentuc.New(text, pages, pdfAdapter, imagecodec.New(imagecodec.DefaultJPEGQuality), cfg.logger).
		WithPipeline(cfg.pipeline)

	return &Client{
		recognizer: recognizer,
		text:       text,
		documents:  docs,
		pdf:        pdfAdapter,
	}, nil
}

// Ping checks that the recognizer backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.recognizer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// RedactText replaces emails, street addresses, person names and places in s
// with placeholders such as [REDACTED EMAIL].
func (c *Client) RedactText(ctx context.Context, s string) (TextResult, error) {
	res, err := c.text.Redact(ctx, s)
	if err != nil {
		return TextResult{}, fmt.Errorf("piiredact: %w", err)
	}
	detections := make(map[string]int, len(res.Detections))
	for k, n := range res.Detections {
		detections[string(k)] = n
	}
	return TextResult{Text: res.Text, Detections: detections}, nil
}

// RenderText lays s out as a PDF document.
func (c *Client) RenderText(ctx context.Context, s string) ([]byte, error) {
	out, err := c.pdf.RenderText(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("piiredact: %w", err)
	}
	return out, nil
}

// RedactDocument redacts a PDF or a PNG, JPEG, TIFF, BMP or WEBP image.
// Images come back in the same container, except WEBP which is returned as PNG.
func (c *Client) RedactDocument(ctx context.Context, data []byte, opts ...DocumentOption) (DocumentResult, error) {
	var dc documentConfig
	for _, o := range opts {
		o(&dc)
	}
	var docOpts []documentuc.Option
	if dc.padding != nil {
		docOpts = append(docOpts, documentuc.WithPadding(*dc.padding))
	}

	res, err := c.documents.Redact(ctx, data, docOpts...)
	if err != nil {
		return DocumentResult{}, fmt.Errorf("piiredact: %w", err)
	}
	return DocumentResult{
		Data:       res.Data,
		Format:     string(res.Format),
		Mode:       string(res.Mode),
		Pages:      res.Pages,
		Redactions: res.Redactions,
	}, nil
}

// recognizerAdapter wraps a public Recognizer to satisfy domain.Recognizer.
type recognizerAdapter struct {
	inner Recognizer
}

func (a *recognizerAdapter) Recognize(ctx context.Context, text string) ([]domain.Entity, error) {
	entities, err := a.inner.Recognize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	out := make([]domain.Entity, len(entities))
	for i, e := range entities {
		out[i] = domain.Entity{Start: e.Start, End: e.End, Label: domain.ParseLabel(e.Label)}
	}
	return out, nil
}

// HealthCheck delegates to the wrapped recognizer when it has one.
func (a *recognizerAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// ocrAdapter wraps a public OCR to satisfy the page pipeline.
type ocrAdapter struct {
	inner OCR
}

func (a *ocrAdapter) ExtractWords(ctx context.Context, img image.Image) ([]ocr.Word, error) {
	words, err := a.inner.ExtractWords(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("extract words: %w", err)
	}
	out := make([]ocr.Word, len(words))
	for i, w := range words {
		out[i] = ocr.Word{Text: w.Text, Box: ocr.FromRect(w.Box), Confidence: w.Confidence}
	}
	return out, nil
}
