// Package ner implements domain.Recognizer on top of a spaCy sidecar
// speaking JSON over HTTP.
package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/piiredact/internal/domain"
	"github.com/kailas-cloud/piiredact/internal/metrics"
)

// DefaultTimeout bounds a single sidecar call when none is configured.
const DefaultTimeout = 10 * time.Second

// Client calls the sidecar's /entities endpoint.
type Client struct {
	entitiesURL string
	healthURL   string
	provider    string
	http        *http.Client
	logger      *zap.Logger
}

// New creates a Client for the sidecar at baseURL (e.g. "http://spacy-ner:8001").
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := strings.TrimRight(baseURL, "/")
	return &Client{
		entitiesURL: base + "/entities",
		healthURL:   base + "/health",
		provider:    "spacy",
		http:        &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

type entitiesRequest struct {
	Text string `json:"text"`
}

type entitiesResponse struct {
	Entities []nerEntity `json:"entities"`
}

// nerEntity offsets are Unicode code point indexes, as spaCy reports them.
type nerEntity struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
}

// Recognize sends text to the sidecar and returns entities with byte offsets.
// Any transport failure is reported as domain.ErrRecognitionUnavailable.
func (c *Client) Recognize(ctx context.Context, text string) ([]domain.Entity, error) {
	body, err := json.Marshal(entitiesRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("ner: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.entitiesURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ner: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecognizerErrorsTotal.WithLabelValues(c.provider, "unreachable").Inc()
		return nil, fmt.Errorf("ner: sidecar unreachable: %w: %w", err, domain.ErrRecognitionUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.RecognizerErrorsTotal.WithLabelValues(c.provider, "bad_status").Inc()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ner: status %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(snippet)), domain.ErrRecognitionUnavailable)
	}

	var result entitiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.RecognizerErrorsTotal.WithLabelValues(c.provider, "bad_response").Inc()
		return nil, fmt.Errorf("ner: decode: %w: %w", err, domain.ErrRecognitionUnavailable)
	}

	entities := toByteOffsets(text, result.Entities)
	if dropped := len(result.Entities) - len(entities); dropped > 0 {
		c.logger.Warn("Sidecar returned out-of-range entities", zap.Int("dropped", dropped))
	}
	return entities, nil
}

// HealthCheck verifies the sidecar answers its health endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return fmt.Errorf("ner: request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ner: health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ner: health status %d", resp.StatusCode)
	}
	return nil
}

// toByteOffsets converts code point offsets to byte offsets, dropping invalid spans.
func toByteOffsets(text string, ents []nerEntity) []domain.Entity {
	// offsets[i] is the byte offset of code point i; the extra slot is len(text).
	offsets := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))
	last := len(offsets) - 1

	out := make([]domain.Entity, 0, len(ents))
	for _, e := range ents {
		if e.Start < 0 || e.End > last || e.Start >= e.End {
			continue
		}
		out = append(out, domain.Entity{
			Start: offsets[e.Start],
			End:   offsets[e.End],
			Label: domain.ParseLabel(e.Label),
		})
	}
	return domain.ValidEntities(text, out)
}
