package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/piiredact/internal/domain"
	domaudit "github.com/kailas-cloud/piiredact/internal/domain/audit"
	"github.com/kailas-cloud/piiredact/internal/metrics"
)

// Service records completed redactions and reports aggregate statistics.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// New creates an audit service. repo may be nil, in which case records are only counted.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record emits an audit record for a completed request. Persistence failures are
// logged and counted but never returned: a redaction that succeeded stays successful.
func (s *Service) Record(ctx context.Context, kind domaudit.Kind, itemCount int) domaudit.Record {
	rec := domaudit.Record{
		ID:        uuid.NewString(),
		Kind:      kind,
		ItemCount: itemCount,
		Timestamp: s.now(),
	}
	metrics.RedactionsTotal.WithLabelValues(string(kind)).Inc()

	if s.repo == nil {
		return rec
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		metrics.AuditWriteErrorsTotal.Inc()
		s.logger.Warn("Failed to persist audit record",
			zap.String("id", rec.ID),
			zap.String("kind", string(kind)),
			zap.Int("item_count", itemCount),
			zap.Error(err),
		)
	}
	return rec
}

// Stats returns totals by kind and the most recent records.
func (s *Service) Stats(ctx context.Context) (domaudit.Stats, error) {
	if s.repo == nil {
		return domaudit.Stats{}, fmt.Errorf("audit log: %w", domain.ErrNotFound)
	}
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return domaudit.Stats{}, fmt.Errorf("audit stats: %w", err)
	}
	return st, nil
}
