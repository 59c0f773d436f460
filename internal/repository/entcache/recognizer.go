package entcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/piiredact/internal/db"
	"github.com/kailas-cloud/piiredact/internal/domain"
)

// store is the consumer interface for the entity cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// cachedEntity is the stored form of a domain.Entity.
type cachedEntity struct {
	Start int    `json:"s"`
	End   int    `json:"e"`
	Label string `json:"l"`
}

// CachedRecognizer caches recognizer output keyed by backend and the exact input text.
// Recognizers are deterministic for a given model, so a hit is interchangeable with a call.
type CachedRecognizer struct {
	inner      domain.Recognizer
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. keyPrefix namespaces cache keys and backend
// names the recognizer producing the entities (provider and model), so a
// switched backend never serves another's entries. ttl bounds how long entries
// live (zero keeps them forever). cacheTotal is a counter vec with label
// "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Recognizer,
	s store,
	keyPrefix string,
	backend string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedRecognizer {
	return &CachedRecognizer{
		inner:      inner,
		store:      s,
		prefix:     keyPrefix + "ent_cache:" + backend + ":",
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Recognize returns cached entities or calls the inner recognizer.
// Cache failures degrade to a direct call and are only logged.
func (c *CachedRecognizer) Recognize(ctx context.Context, text string) ([]domain.Entity, error) {
	key := c.cacheKey(text)

	if entities, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return entities, nil
	}

	c.incCache("miss")

	entities, err := c.inner.Recognize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	c.putToCache(ctx, key, entities)
	return entities, nil
}

// HealthCheck delegates to the inner recognizer when it supports health checks.
func (c *CachedRecognizer) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

func (c *CachedRecognizer) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedRecognizer) cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(h[:])
}

func (c *CachedRecognizer) getFromCache(ctx context.Context, key string) ([]domain.Entity, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached entities", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	entities, err := decodeEntities(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached entities", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return entities, true
}

func (c *CachedRecognizer) putToCache(ctx context.Context, key string, entities []domain.Entity) {
	data, err := encodeEntities(entities)
	if err != nil {
		c.logger.Warn("Failed to encode entities", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache entities", zap.String("key", key), zap.Error(err))
	}
}

func encodeEntities(entities []domain.Entity) ([]byte, error) {
	out := make([]cachedEntity, len(entities))
	for i, e := range entities {
		out[i] = cachedEntity{Start: e.Start, End: e.End, Label: string(e.Label)}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal entities: %w", err)
	}
	return data, nil
}

func decodeEntities(data []byte) ([]domain.Entity, error) {
	var in []cachedEntity
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("unmarshal entities: %w", err)
	}
	out := make([]domain.Entity, len(in))
	for i, e := range in {
		out[i] = domain.Entity{Start: e.Start, End: e.End, Label: domain.Label(e.Label)}
	}
	return out, nil
}
