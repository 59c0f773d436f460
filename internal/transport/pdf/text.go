package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/kailas-cloud/piiredact/internal/domain"
)

// ExtractText returns the plain text layer of every page, in page order.
// Pages without content yield an empty string.
func (a *Adapter) ExtractText(ctx context.Context, data []byte) (pages []string, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("read pdf: %v: %w", r, domain.ErrExtractionFailed)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w: %w", err, domain.ErrExtractionFailed)
	}

	n := reader.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extract text: %w", err)
		}

		p := reader.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d text: %w: %w", i, err, domain.ErrExtractionFailed)
		}
		pages = append(pages, content)
	}
	return pages, nil
}
