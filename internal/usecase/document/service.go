package document

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/piiredact/internal/domain"
	domdoc "github.com/kailas-cloud/piiredact/internal/domain/document"
	"github.com/kailas-cloud/piiredact/internal/metrics"
)

// Service redacts binary documents. It picks one representation per document:
// the text layer when it is usable, page images otherwise.
type Service struct {
	text   TextRedactor
	pages  PageRedactor
	pdf    PDF
	codec  ImageCodec
	cfg    domain.PipelineConfig
	logger *zap.Logger
}

// New creates a document service with the default pipeline configuration.
func New(text TextRedactor, pages PageRedactor, pdf PDF, codec ImageCodec, logger *zap.Logger) *Service {
	return &Service{
		text:   text,
		pages:  pages,
		pdf:    pdf,
		codec:  codec,
		cfg:    domain.DefaultPipelineConfig(),
		logger: logger,
	}
}

// WithPipeline overrides pipeline tuning. Negative padding and non-positive
// thresholds keep their defaults.
func (s *Service) WithPipeline(cfg domain.PipelineConfig) *Service {
	if cfg.MaskPadding >= 0 {
		s.cfg.MaskPadding = cfg.MaskPadding
	}
	if cfg.MinTextChars > 0 {
		s.cfg.MinTextChars = cfg.MinTextChars
	}
	if cfg.PageWorkers > 0 {
		s.cfg.PageWorkers = cfg.PageWorkers
	}
	return s
}

// Redact redacts data and returns a document in the same container format.
func (s *Service) Redact(ctx context.Context, data []byte, opts ...Option) (domdoc.Result, error) {
	rc := requestConfig{padding: s.cfg.MaskPadding}
	for _, o := range opts {
		o(&rc)
	}

	format := domdoc.Detect(data)
	var (
		res domdoc.Result
		err error
	)
	switch {
	case format == domdoc.PDF:
		res, err = s.redactPDF(ctx, data, rc)
	case format.IsImage():
		res, err = s.redactImage(ctx, data, rc)
	default:
		return domdoc.Result{}, fmt.Errorf("detect format: %w", domain.ErrUnsupportedFormat)
	}
	if err != nil {
		return domdoc.Result{}, err
	}

	metrics.DocumentsTotal.WithLabelValues(string(res.Mode), string(res.Format)).Inc()
	return res, nil
}

func (s *Service) redactPDF(ctx context.Context, data []byte, rc requestConfig) (domdoc.Result, error) {
	if res, ok, err := s.redactTextLayer(ctx, data); ok || err != nil {
		return res, err
	}

	rasters, err := s.pdf.Rasterize(ctx, data)
	if err != nil {
		return domdoc.Result{}, fmt.Errorf("rasterize: %w", wrapSentinel(err, domain.ErrExtractionFailed))
	}
	if len(rasters) == 0 {
		return domdoc.Result{}, fmt.Errorf("rasterize: no pages: %w", domain.ErrExtractionFailed)
	}

	redacted, masked, err := s.redactPages(ctx, rasters, rc.padding)
	if err != nil {
		return domdoc.Result{}, err
	}

	out, err := s.pdf.RenderImages(ctx, redacted)
	if err != nil {
		return domdoc.Result{}, fmt.Errorf("render pages: %w", wrapSentinel(err, domain.ErrRenderingFailed))
	}
	return domdoc.Result{
		Data:       out,
		Format:     domdoc.PDF,
		Mode:       domdoc.ImageOnly,
		Pages:      len(rasters),
		Redactions: masked,
	}, nil
}

// redactTextLayer redacts the PDF as text when its text layer is usable.
// ok is false when the caller must fall back to page images.
func (s *Service) redactTextLayer(ctx context.Context, data []byte) (res domdoc.Result, ok bool, err error) {
	pages, err := s.pdf.ExtractText(ctx, data)
	if err != nil {
		s.logger.Warn("Text extraction failed, falling back to OCR", zap.Error(err))
		metrics.TextFallbacksTotal.WithLabelValues("error").Inc()
		return domdoc.Result{}, false, nil
	}

	joined := strings.Join(pages, "\n")
	if utf8.RuneCountInString(strings.TrimSpace(joined)) < s.cfg.MinTextChars {
		s.logger.Debug("Text layer too short, falling back to OCR", zap.Int("pages", len(pages)))
		metrics.TextFallbacksTotal.WithLabelValues("too_short").Inc()
		return domdoc.Result{}, false, nil
	}

	redacted, err := s.text.Redact(ctx, joined)
	if err != nil {
		return domdoc.Result{}, false, fmt.Errorf("redact text layer: %w", err)
	}

	out, err := s.pdf.RenderText(ctx, redacted.Text)
	if err != nil {
		return domdoc.Result{}, false, fmt.Errorf("render text: %w", wrapSentinel(err, domain.ErrRenderingFailed))
	}
	return domdoc.Result{
		Data:       out,
		Format:     domdoc.PDF,
		Mode:       domdoc.TextExtractable,
		Pages:      len(pages),
		Redactions: redacted.Total(),
	}, true, nil
}

func (s *Service) redactImage(ctx context.Context, data []byte, rc requestConfig) (domdoc.Result, error) {
	img, format, err := s.codec.Decode(data)
	if err != nil {
		return domdoc.Result{}, fmt.Errorf("decode image: %w", wrapSentinel(err, domain.ErrUnsupportedFormat))
	}

	res, err := s.pages.Redact(ctx, 0, img, rc.padding)
	if err != nil {
		return domdoc.Result{}, fmt.Errorf("redact image: %w", err)
	}

	out, outFormat, err := s.codec.Encode(res.Image, format)
	if err != nil {
		return domdoc.Result{}, fmt.Errorf("encode image: %w", wrapSentinel(err, domain.ErrRenderingFailed))
	}
	return domdoc.Result{
		Data:       out,
		Format:     outFormat,
		Mode:       domdoc.ImageOnly,
		Pages:      1,
		Redactions: res.Total(),
	}, nil
}

// redactPages runs the page pipeline over rasters on at most PageWorkers
// goroutines. Output order matches input order; the first failure aborts the document.
func (s *Service) redactPages(ctx context.Context, rasters []image.Image, padding int) ([]image.Image, int, error) {
	out := make([]image.Image, len(rasters))
	masked := make([]int, len(rasters))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.PageWorkers)
	for i, img := range rasters {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err //nolint:wrapcheck // cancellation from a failed sibling page
			}
			res, err := s.pages.Redact(gctx, i, img, padding)
			if err != nil {
				return domain.NewPageError(i, err)
			}
			out[i] = res.Image
			masked[i] = res.Total()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("redact pages: %w", err)
	}

	total := 0
	for _, n := range masked {
		total += n
	}
	s.logger.Debug("Pages redacted", zap.Int("pages", len(rasters)), zap.Int("masked_words", total))
	return out, total, nil
}

func wrapSentinel(err, sentinel error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
