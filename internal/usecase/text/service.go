package text

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/piiredact/internal/domain"
	"github.com/kailas-cloud/piiredact/internal/domain/pattern"
	"github.com/kailas-cloud/piiredact/internal/domain/span"
	"github.com/kailas-cloud/piiredact/internal/metrics"
)

// Result is the outcome of a text redaction.
type Result struct {
	Text string
	// Detections counts placeholders inserted per kind.
	Detections map[span.Kind]int
	// Discarded counts entity spans dropped for overlapping.
	Discarded int
}

// Total returns the number of inserted placeholders.
func (r Result) Total() int {
	n := 0
	for _, c := range r.Detections {
		n += c
	}
	return n
}

// Service redacts PII in free text: pattern matches first, then named entities.
type Service struct {
	detector   *pattern.Detector
	recognizer Recognizer
	logger     *zap.Logger
}

// New creates a text redaction Service.
func New(recognizer Recognizer, logger *zap.Logger) *Service {
	return &Service{
		detector:   pattern.NewDetector(),
		recognizer: domain.NewFilteringRecognizer(recognizer, domain.TextLabels()),
		logger:     logger,
	}
}

// Redact replaces emails, street addresses, person names and places in text
// with placeholders. Either the whole text is redacted or an error is returned.
func (s *Service) Redact(ctx context.Context, text string) (Result, error) {
	masked, detections := s.detector.Redact(text)
	res := Result{Text: masked, Detections: detections}

	if strings.TrimSpace(masked) == "" {
		return res, nil
	}

	entities, err := s.recognizer.Recognize(ctx, masked)
	if err != nil {
		if !errors.Is(err, domain.ErrRecognitionUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrRecognitionUnavailable, err)
		}
		return Result{}, fmt.Errorf("recognize entities: %w", err)
	}

	spans, discarded := s.entitySpans(masked, entities)
	kept, dropped := span.Resolve(spans)
	discarded += len(dropped)
	if discarded > 0 {
		s.logger.Debug("Discarded overlapping entity spans",
			zap.Int("discarded", discarded),
			zap.Int("kept", len(kept)),
		)
		metrics.SpansDiscardedTotal.Add(float64(discarded))
	}

	res.Text = span.Apply(masked, kept)
	for _, sp := range kept {
		res.Detections[sp.Kind]++
	}
	res.Discarded = discarded

	for kind, n := range res.Detections {
		metrics.DetectionsTotal.WithLabelValues(string(kind)).Add(float64(n))
	}
	return res, nil
}

// entitySpans converts recognized entities into spans, skipping entities
// that touch an existing placeholder.
func (s *Service) entitySpans(text string, entities []domain.Entity) (spans []span.Span, discarded int) {
	placeholders := span.Placeholders(text)
	for _, e := range entities {
		sp := span.Span{Start: e.Start, End: e.End, Kind: kindOf(e.Label)}
		if span.OverlapsAny(sp, placeholders) {
			discarded++
			continue
		}
		spans = append(spans, sp)
	}
	return spans, discarded
}

func kindOf(l domain.Label) span.Kind {
	if l == domain.LabelPerson {
		return span.Name
	}
	return span.Location
}
