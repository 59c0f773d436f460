package piiredact

import (
	"image/color"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/piiredact/internal/domain"
	"github.com/kailas-cloud/piiredact/internal/transport/ner"
	"github.com/kailas-cloud/piiredact/internal/transport/openai"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	recognizer domain.Recognizer
	provider   string
	ocr        OCR
	languages  []string
	pipeline   domain.PipelineConfig
	maskColor  color.Color
	logger     *zap.Logger
}

// WithRecognizer sets a custom entity recognizer.
func WithRecognizer(r Recognizer) Option {
	return func(c *clientConfig) {
		c.recognizer = &recognizerAdapter{inner: r}
		c.provider = "custom"
	}
}

// WithSpacy uses a spaCy sidecar at baseURL as the entity recognizer.
func WithSpacy(baseURL string, timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.recognizer = ner.New(baseURL, timeout, c.logger)
		c.provider = "spacy"
	}
}

// WithOpenAI uses an OpenAI-compatible chat model as the entity recognizer.
// An empty baseURL targets the OpenAI API.
func WithOpenAI(apiKey, baseURL, model string) Option {
	return func(c *clientConfig) {
		c.recognizer = openai.NewRecognizer(&openai.Config{
			APIKey:   apiKey,
			BaseURL:  baseURL,
			Model:    model,
			Provider: "openai",
			Logger:   c.logger,
		})
		c.provider = "openai"
	}
}

// WithOCR sets a custom OCR engine. Tesseract is used otherwise.
func WithOCR(o OCR) Option {
	return func(c *clientConfig) { c.ocr = o }
}

// WithLanguages sets the Tesseract languages, "eng" by default.
func WithLanguages(langs ...string) Option {
	return func(c *clientConfig) { c.languages = langs }
}

// WithMaskPadding sets the default pixel margin around masked words.
func WithMaskPadding(px int) Option {
	return func(c *clientConfig) { c.pipeline.MaskPadding = px }
}

// WithMinTextChars sets how many non-blank characters a PDF text layer needs
// before it is redacted as text.
func WithMinTextChars(n int) Option {
	return func(c *clientConfig) { c.pipeline.MinTextChars = n }
}

// WithPageWorkers bounds how many pages of one document are redacted concurrently.
func WithPageWorkers(n int) Option {
	return func(c *clientConfig) { c.pipeline.PageWorkers = n }
}

// WithMaskColor sets the color painted over redacted words. Black by default.
func WithMaskColor(col color.Color) Option {
	return func(c *clientConfig) { c.maskColor = col }
}

// WithLogger sets the logger. Options that build recognizers use the logger
// set before them.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// DocumentOption tunes a single RedactDocument call.
type DocumentOption func(*documentConfig)

type documentConfig struct {
	padding *int
}

// Padding overrides the mask padding for one document.
func Padding(px int) DocumentOption {
	return func(c *documentConfig) { c.padding = &px }
}
