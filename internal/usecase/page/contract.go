package page

import (
	"context"
	"image"

	"github.com/kailas-cloud/piiredact/internal/domain"
	"github.com/kailas-cloud/piiredact/internal/domain/ocr"
)

// WordExtractor runs OCR on a page image and returns words in reading order.
type WordExtractor interface {
	ExtractWords(ctx context.Context, img image.Image) ([]ocr.Word, error)
}

// Recognizer finds named entities in text.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]domain.Entity, error)
}
