package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/piiredact/internal/domain"
	"github.com/kailas-cloud/piiredact/internal/metrics"
)

const systemPrompt = `You are a named-entity recognizer. Find every person name, ` +
	`geopolitical entity (country, city, state), organization, facility and location in the user text. ` +
	`Respond with a JSON object {"entities":[{"text":"...","label":"..."}]} where label is one of ` +
	`PERSON, GPE, ORG, FAC, LOC and text is copied exactly from the input. ` +
	`Return {"entities":[]} when there are none.`

// Recognizer is an entity recognizer backed by an OpenAI-compatible chat completion API.
// The model returns surface forms; offsets are located in the input text here.
type Recognizer struct {
	client   *openai.Client
	model    string
	user     string
	provider string
	logger   *zap.Logger
}

// Config holds the recognizer provider settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	User     string
	Provider string
	Logger   *zap.Logger
}

// NewRecognizer creates an OpenAI-compatible recognizer.
func NewRecognizer(cfg *Config) *Recognizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Recognizer{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		user:     cfg.User,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

type entityJSON struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

type entitiesJSON struct {
	Entities []entityJSON `json:"entities"`
}

// Recognize implements domain.Recognizer.
func (r *Recognizer) Recognize(ctx context.Context, text string) ([]domain.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	req := openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		User: r.user,
	}

	resp, err := r.client.CreateChatCompletion(ctx, req)
	if err != nil {
		metrics.RecognizerErrorsTotal.WithLabelValues(r.provider, "api_error").Inc()
		return nil, parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.RecognizerErrorsTotal.WithLabelValues(r.provider, "empty_response").Inc()
		return nil, fmt.Errorf("empty completion response: %w", domain.ErrRecognitionUnavailable)
	}

	found, err := parseEntities(resp.Choices[0].Message.Content)
	if err != nil {
		metrics.RecognizerErrorsTotal.WithLabelValues(r.provider, "bad_response").Inc()
		return nil, fmt.Errorf("parse completion: %w: %w", err, domain.ErrRecognitionUnavailable)
	}

	entities := locate(text, found)
	r.logger.Debug("LLM entities located",
		zap.String("provider", r.provider),
		zap.Int("returned", len(found)),
		zap.Int("located", len(entities)),
	)
	return entities, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (r *Recognizer) HealthCheck(ctx context.Context) error {
	if _, err := r.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseEntities accepts the object form and a bare array, optionally fenced in markdown.
func parseEntities(content string) ([]entityJSON, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "[") {
		var list []entityJSON
		if err := json.Unmarshal([]byte(content), &list); err != nil {
			return nil, fmt.Errorf("unmarshal entity list: %w", err)
		}
		return list, nil
	}

	var obj entitiesJSON
	if err := json.Unmarshal([]byte(content), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal entities: %w", err)
	}
	return obj.Entities, nil
}

// locate finds every whole-word occurrence of each returned surface form.
// Duplicate surface forms are located once.
func locate(text string, found []entityJSON) []domain.Entity {
	seen := make(map[string]struct{}, len(found))
	var out []domain.Entity
	for _, f := range found {
		needle := strings.TrimSpace(f.Text)
		if needle == "" {
			continue
		}
		if _, dup := seen[needle]; dup {
			continue
		}
		seen[needle] = struct{}{}

		label := domain.ParseLabel(f.Label)
		for from := 0; from < len(text); {
			i := strings.Index(text[from:], needle)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(needle)
			if isBoundary(text, start, end) {
				out = append(out, domain.Entity{Start: start, End: end, Label: label})
			}
			from = end
		}
	}
	return domain.ValidEntities(text, out)
}

func isBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrRecognitionUnavailable for correct 503 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrRecognitionUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("recognizer API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("recognizer API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("recognizer request failed: %w: %w", err, wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
