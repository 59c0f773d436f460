package text

import (
	"context"

	"github.com/kailas-cloud/piiredact/internal/domain"
)

// Recognizer finds named entities in text.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]domain.Entity, error)
}
