package audit

import (
	"context"

	domaudit "github.com/kailas-cloud/piiredact/internal/domain/audit"
)

// Repository persists audit records.
type Repository interface {
	Save(ctx context.Context, rec domaudit.Record) error
	Stats(ctx context.Context) (domaudit.Stats, error)
}
