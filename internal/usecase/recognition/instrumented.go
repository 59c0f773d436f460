package recognition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/piiredact/internal/domain"
	"github.com/kailas-cloud/piiredact/internal/metrics"
)

// InstrumentedRecognizer wraps a Recognizer with metrics and logging.
// Transport-specific error classification is recorded in the transports.
type InstrumentedRecognizer struct {
	inner    domain.Recognizer
	provider string
	logger   *zap.Logger
}

// NewInstrumentedRecognizer wraps a recognizer with observability.
func NewInstrumentedRecognizer(inner domain.Recognizer, provider string, logger *zap.Logger) *InstrumentedRecognizer {
	return &InstrumentedRecognizer{
		inner:    inner,
		provider: provider,
		logger:   logger,
	}
}

// Recognize delegates to the inner recognizer and records the outcome.
func (r *InstrumentedRecognizer) Recognize(ctx context.Context, text string) ([]domain.Entity, error) {
	start := time.Now()

	entities, err := r.inner.Recognize(ctx, text)

	duration := time.Since(start)
	metrics.RecognizerRequestDuration.WithLabelValues(r.provider).Observe(duration.Seconds())

	if err != nil {
		metrics.RecognizerRequestsTotal.WithLabelValues(r.provider, "error").Inc()
		r.logger.Error("Recognizer request failed",
			zap.String("provider", r.provider),
			zap.Duration("duration", duration),
			zap.Int("text_bytes", len(text)),
			zap.Error(err),
		)
		if errors.Is(err, domain.ErrRecognitionUnavailable) {
			return nil, fmt.Errorf("recognize: %w", err)
		}
		return nil, fmt.Errorf("recognize: %w: %w", domain.ErrRecognitionUnavailable, err)
	}

	metrics.RecognizerRequestsTotal.WithLabelValues(r.provider, "ok").Inc()
	for _, e := range entities {
		metrics.RecognizerEntitiesTotal.WithLabelValues(r.provider, string(e.Label)).Inc()
	}

	r.logger.Debug("Recognizer request completed",
		zap.String("provider", r.provider),
		zap.Duration("duration", duration),
		zap.Int("text_bytes", len(text)),
		zap.Int("entities", len(entities)),
	)

	return entities, nil
}

// HealthCheck delegates to the inner recognizer when it supports health checks.
func (r *InstrumentedRecognizer) HealthCheck(ctx context.Context) error {
	hc, ok := r.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("%s recognizer: %w", r.provider, err)
	}
	return nil
}
