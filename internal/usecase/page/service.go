package page

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/piiredact/internal/domain"
	"github.com/kailas-cloud/piiredact/internal/domain/classify"
	"github.com/kailas-cloud/piiredact/internal/domain/mask"
	"github.com/kailas-cloud/piiredact/internal/domain/ocr"
	"github.com/kailas-cloud/piiredact/internal/domain/vocabulary"
	"github.com/kailas-cloud/piiredact/internal/metrics"
)

// Result is one redacted page.
type Result struct {
	PageIndex int
	Image     *image.RGBA
	Words int
	// Masked counts words painted over, by the rule that flagged them.
	Masked map[classify.Rule]int
}

// Total returns the number of masked words.
func (r Result) Total() int {
	n := 0
	for _, c := range r.Masked {
		n += c
	}
	return n
}

// Service redacts a single page image: OCR, vocabulary, classification, masking.
type Service struct {
	ocr        WordExtractor
	recognizer Recognizer
	maskOpts   []mask.Option
	logger     *zap.Logger
}

// New creates a page redaction Service.
func New(ocr WordExtractor, recognizer Recognizer, logger *zap.Logger, maskOpts ...mask.Option) *Service {
	// Export a zero sample per rule before the first page arrives.
	metrics.OCRWordsTotal.WithLabelValues(string(classify.None))
	for _, rule := range classify.Rules() {
		metrics.OCRWordsTotal.WithLabelValues(string(rule))
	}

	return &Service{
		ocr:        ocr,
		recognizer: domain.NewFilteringRecognizer(recognizer, domain.PageLabels()),
		maskOpts:   maskOpts,
		logger:     logger,
	}
}

// Redact masks every sensitive word of img, the page at pageIndex, growing each
// word box by padding pixels, and returns the new page image. img is never modified.
func (s *Service) Redact(ctx context.Context, pageIndex int, img image.Image, padding int) (Result, error) {
	start := time.Now()
	defer func() { metrics.PageDuration.Observe(time.Since(start).Seconds()) }()

	words, err := s.ocr.ExtractWords(ctx, img)
	if err != nil {
		return Result{}, fmt.Errorf("ocr page: %w", wrapSentinel(err, domain.ErrExtractionFailed))
	}
	for i := range words {
		words[i].PageIndex = pageIndex
	}

	vocab, err := s.vocabulary(ctx, words)
	if err != nil {
		return Result{}, err
	}

	masked := make(map[classify.Rule]int)
	boxes := make([]ocr.Box, 0, len(words))
	for _, w := range words {
		if w.IsBlank() {
			continue
		}
		rule := classify.Classify(w.Text, vocab)
		metrics.OCRWordsTotal.WithLabelValues(string(rule)).Inc()
		if rule == classify.None {
			continue
		}
		masked[rule]++
		boxes = append(boxes, w.Box)
	}

	s.logger.Debug("Page classified",
		zap.Int("page", pageIndex),
		zap.Int("words", len(words)),
		zap.Int("vocabulary", vocab.Len()),
		zap.Int("masked", len(boxes)),
	)

	return Result{
		PageIndex: pageIndex,
		Image:     mask.NewRenderer(padding, s.maskOpts...).Render(img, boxes),
		Words:     len(words),
		Masked:    masked,
	}, nil
}

// vocabulary reconstructs the page text from OCR words and collects the
// tokens of every recognized entity.
func (s *Service) vocabulary(ctx context.Context, words []ocr.Word) (vocabulary.Vocabulary, error) {
	text := vocabulary.Reconstruct(words)
	if text == "" {
		return vocabulary.New(), nil
	}
	entities, err := s.recognizer.Recognize(ctx, text)
	if err != nil {
		return vocabulary.Vocabulary{}, fmt.Errorf("recognize page entities: %w",
			wrapSentinel(err, domain.ErrRecognitionUnavailable))
	}
	return vocabulary.FromEntities(text, entities), nil
}

func wrapSentinel(err, sentinel error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
