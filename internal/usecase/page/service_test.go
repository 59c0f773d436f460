package page

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/piiredact/internal/domain"
	"github.com/kailas-cloud/piiredact/internal/domain/classify"
	"github.com/kailas-cloud/piiredact/internal/domain/mask"
	"github.com/kailas-cloud/piiredact/internal/domain/ocr"
	"github.com/kailas-cloud/piiredact/internal/metrics"
)

// --- Mocks ---

type mockOCR struct {
	words []ocr.Word
	err   error
}

func (m *mockOCR) ExtractWords(_ context.Context, _ image.Image) ([]ocr.Word, error) {
	return m.words, m.err
}

type mockRecognizer struct {
	names map[string]domain.Label
	err   error
	calls int
	got   string
}

func (m *mockRecognizer) Recognize(_ context.Context, text string) ([]domain.Entity, error) {
	m.calls++
	m.got = text
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Entity
	for name, label := range m.names {
		if i := strings.Index(text, name); i >= 0 {
			out = append(out, domain.Entity{Start: i, End: i + len(name), Label: label})
		}
	}
	return out, nil
}

// --- Helpers ---

func whitePage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func isBlack(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return r == 0 && g == 0 && b == 0
}

func word(text string, left, top, width, height int) ocr.Word {
	return ocr.Word{Text: text, Box: ocr.Box{Left: left, Top: top, Width: width, Height: height}}
}

func newService(o WordExtractor, r Recognizer) *Service {
	return New(o, r, zap.NewNop())
}

// --- Tests ---

func TestRedact_DigitWordMaskedWithPadding(t *testing.T) {
	svc := newService(&mockOCR{words: []ocr.Word{word("123", 10, 10, 20, 10)}}, &mockRecognizer{})

	res, err := svc.Redact(context.Background(), 0, whitePage(), mask.DefaultPadding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Masked[classify.Digits] != 1 {
		t.Fatalf("expected 1 digit mask, got %v", res.Masked)
	}
	for _, p := range []image.Point{{5, 5}, {34, 24}} {
		if !isBlack(res.Image, p.X, p.Y) {
			t.Errorf("pixel %v should be masked", p)
		}
	}
	for _, p := range []image.Point{{4, 4}, {35, 25}} {
		if isBlack(res.Image, p.X, p.Y) {
			t.Errorf("pixel %v should not be masked", p)
		}
	}
}

func TestRedact_EntityTokensMasked(t *testing.T) {
	rec := &mockRecognizer{names: map[string]domain.Label{"John Smith": domain.LabelPerson}}
	words := []ocr.Word{
		word("Dear", 0, 0, 30, 10),
		word("John", 40, 0, 30, 10),
		word("Smith,", 80, 0, 40, 10),
		word("", 130, 0, 5, 10),
	}
	svc := newService(&mockOCR{words: words}, rec)

	res, err := svc.Redact(context.Background(), 0, whitePage(), mask.DefaultPadding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.got != "Dear John Smith," {
		t.Errorf("recognizer got %q", rec.got)
	}
	if res.Masked[classify.Vocabulary] != 2 {
		t.Errorf("expected 2 vocabulary masks, got %v", res.Masked)
	}
	if isBlack(res.Image, 15, 5) {
		t.Error("\"Dear\" must stay visible")
	}
	if !isBlack(res.Image, 55, 5) || !isBlack(res.Image, 100, 5) {
		t.Error("name tokens must be masked")
	}
}

func TestRedact_AggressiveDigits(t *testing.T) {
	words := []ocr.Word{
		word("1.", 0, 0, 10, 10),
		word("|5", 20, 0, 10, 10),
		word("042", 40, 0, 10, 10),
		word("Invoice", 60, 0, 40, 10),
	}
	svc := newService(&mockOCR{words: words}, &mockRecognizer{})

	res, err := svc.Redact(context.Background(), 0, whitePage(), mask.DefaultPadding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total() != 3 {
		t.Errorf("expected 3 masked words, got %d (%v)", res.Total(), res.Masked)
	}
}

func TestRedact_SourceUntouched(t *testing.T) {
	src := whitePage()
	svc := newService(&mockOCR{words: []ocr.Word{word("42", 10, 10, 10, 10)}}, &mockRecognizer{})

	if _, err := svc.Redact(context.Background(), 0, src, mask.DefaultPadding); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isBlack(src, 12, 12) {
		t.Error("source image must not be modified")
	}
}

func TestRedact_OCRError(t *testing.T) {
	svc := newService(&mockOCR{err: errors.New("tesseract crashed")}, &mockRecognizer{})

	_, err := svc.Redact(context.Background(), 0, whitePage(), mask.DefaultPadding)
	if !errors.Is(err, domain.ErrExtractionFailed) {
		t.Errorf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestRedact_RecognizerError(t *testing.T) {
	svc := newService(
		&mockOCR{words: []ocr.Word{word("Hello", 0, 0, 10, 10)}},
		&mockRecognizer{err: errors.New("timeout")},
	)

	_, err := svc.Redact(context.Background(), 0, whitePage(), mask.DefaultPadding)
	if !errors.Is(err, domain.ErrRecognitionUnavailable) {
		t.Errorf("expected ErrRecognitionUnavailable, got %v", err)
	}
}

func TestRedact_BlankPageSkipsRecognizer(t *testing.T) {
	rec := &mockRecognizer{}
	svc := newService(&mockOCR{words: []ocr.Word{word(" ", 0, 0, 5, 5)}}, rec)

	res, err := svc.Redact(context.Background(), 0, whitePage(), mask.DefaultPadding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.calls != 0 {
		t.Errorf("expected no recognizer calls, got %d", rec.calls)
	}
	if res.Total() != 0 {
		t.Errorf("expected nothing masked, got %v", res.Masked)
	}
}

func TestRedact_ZeroPadding(t *testing.T) {
	svc := newService(&mockOCR{words: []ocr.Word{word("7", 50, 50, 10, 10)}}, &mockRecognizer{})

	res, err := svc.Redact(context.Background(), 0, whitePage(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isBlack(res.Image, 49, 49) {
		t.Error("zero padding must not grow the box")
	}
	if !isBlack(res.Image, 50, 50) {
		t.Error("box itself must be masked")
	}
}

func TestRedact_CustomFill(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	svc := New(&mockOCR{words: []ocr.Word{word("7", 50, 50, 10, 10)}}, &mockRecognizer{}, zap.NewNop(), mask.WithFill(red))

	res, err := svc.Redact(context.Background(), 0, whitePage(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Image.RGBAAt(55, 55); got != red {
		t.Errorf("expected red mask, got %v", got)
	}
}

func TestNew_ExportsEveryRuleSeries(t *testing.T) {
	newService(&mockOCR{}, &mockRecognizer{})

	want := len(classify.Rules()) + 1
	if got := testutil.CollectAndCount(metrics.OCRWordsTotal); got < want {
		t.Errorf("ocr_words_total series = %d, want at least %d", got, want)
	}
}

func TestRedact_EmailBehindPunctuationMasked(t *testing.T) {
	words := []ocr.Word{
		word("(alice@example.com)", 10, 10, 80, 10),
		word("Email:bob@corp.io", 10, 40, 80, 10),
		word("Thanks", 10, 70, 40, 10),
	}
	svc := newService(&mockOCR{words: words}, &mockRecognizer{})

	res, err := svc.Redact(context.Background(), 0, whitePage(), 0)
	if err != nil {
		t.Fatalf("Redact: %v", err)
	}
	if res.Masked[classify.Email] != 2 {
		t.Errorf("masked emails = %d, want 2", res.Masked[classify.Email])
	}
	if !isBlack(res.Image, 50, 15) || !isBlack(res.Image, 50, 45) {
		t.Error("email words must be masked")
	}
	if isBlack(res.Image, 20, 75) {
		t.Error("plain word must stay visible")
	}
}

func TestRedact_TagsPageIndex(t *testing.T) {
	svc := newService(&mockOCR{words: []ocr.Word{word("7", 50, 50, 10, 10)}}, &mockRecognizer{})

	res, err := svc.Redact(context.Background(), 3, whitePage(), 0)
	if err != nil {
		t.Fatalf("Redact: %v", err)
	}
	if res.PageIndex != 3 {
		t.Errorf("PageIndex = %d, want 3", res.PageIndex)
	}
}
