package entcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/piiredact/internal/db"
	"github.com/kailas-cloud/piiredact/internal/domain"
)

func TestRecognize_CacheMiss(t *testing.T) {
	inner := &mockRecognizer{entities: []domain.Entity{{Start: 0, End: 4, Label: domain.LabelPerson}}}
	cr, ms := newTestCachedRecognizer(t, inner)

	var (
		setKey string
		setTTL time.Duration
	)
	ms.setFn = func(_ context.Context, key string, _ []byte, ttl time.Duration) error {
		setKey, setTTL = key, ttl
		return nil
	}

	got, err := cr.Recognize(context.Background(), "Mike called")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Label != domain.LabelPerson {
		t.Fatalf("unexpected entities: %+v", got)
	}
	if !strings.HasPrefix(setKey, "piiredact:ent_cache:spacy:") {
		t.Errorf("unexpected cache key %q", setKey)
	}
	if setTTL != time.Hour {
		t.Errorf("expected 1h ttl, got %v", setTTL)
	}
}

func TestRecognize_CacheHit(t *testing.T) {
	inner := &mockRecognizer{}
	cr, ms := newTestCachedRecognizer(t, inner)

	cached, err := encodeEntities([]domain.Entity{{Start: 6, End: 11, Label: domain.LabelPlace}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return cached, nil }

	got, err := cr.Recognize(context.Background(), "Visit Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 0 {
		t.Errorf("expected no inner calls on hit, got %d", inner.calls)
	}
	if len(got) != 1 || got[0].Start != 6 || got[0].End != 11 || got[0].Label != domain.LabelPlace {
		t.Errorf("unexpected cached entities: %+v", got)
	}
}

func TestRecognize_EmptyResultIsCached(t *testing.T) {
	inner := &mockRecognizer{}
	cr, ms := newTestCachedRecognizer(t, inner)

	var stored []byte
	ms.setFn = func(_ context.Context, _ string, v []byte, _ time.Duration) error {
		stored = v
		return nil
	}
	if _, err := cr.Recognize(context.Background(), "nothing here"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return stored, nil }
	if _, err := cr.Recognize(context.Background(), "nothing here"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected one inner call, got %d", inner.calls)
	}
}

func TestRecognize_StoreErrorFallsThrough(t *testing.T) {
	inner := &mockRecognizer{entities: []domain.Entity{{Start: 0, End: 1, Label: domain.LabelPerson}}}
	cr, ms := newTestCachedRecognizer(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return nil, errors.New("conn reset") }
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error { return errors.New("conn reset") }

	got, err := cr.Recognize(context.Background(), "A")
	if err != nil {
		t.Fatalf("cache errors must not fail recognition: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("unexpected entities: %+v", got)
	}
}

func TestRecognize_CorruptCacheEntry(t *testing.T) {
	inner := &mockRecognizer{}
	cr, ms := newTestCachedRecognizer(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return []byte("{not json"), nil }

	if _, err := cr.Recognize(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("corrupt entry must fall back to inner, calls=%d", inner.calls)
	}
}

func TestRecognize_InnerError(t *testing.T) {
	inner := &mockRecognizer{err: domain.ErrRecognitionUnavailable}
	cr, ms := newTestCachedRecognizer(t, inner)

	var setCalled bool
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		setCalled = true
		return nil
	}
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return nil, db.ErrKeyNotFound }

	_, err := cr.Recognize(context.Background(), "text")
	if !errors.Is(err, domain.ErrRecognitionUnavailable) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
	if setCalled {
		t.Error("errors must not be cached")
	}
}

func TestCacheKey_Deterministic(t *testing.T) {
	cr, _ := newTestCachedRecognizer(t, &mockRecognizer{})
	if cr.cacheKey("a") != cr.cacheKey("a") {
		t.Error("same text must map to the same key")
	}
	if cr.cacheKey("a") == cr.cacheKey("b") {
		t.Error("different texts must map to different keys")
	}
}

func TestHealthCheck_Delegates(t *testing.T) {
	inner := &mockRecognizer{healthErr: errors.New("down")}
	cr, _ := newTestCachedRecognizer(t, inner)
	if err := cr.HealthCheck(context.Background()); err == nil {
		t.Error("expected inner health error")
	}
}

func TestCacheKey_NamespacedByBackend(t *testing.T) {
	inner := &mockRecognizer{}
	ms := &mockKVStore{}
	spacy := New(inner, ms, "piiredact:", "spacy", time.Hour, nil, zap.NewNop())
	gpt := New(inner, ms, "piiredact:", "openai:gpt-4o-mini", time.Hour, nil, zap.NewNop())

	a, b := spacy.cacheKey("Mike called"), gpt.cacheKey("Mike called")
	if a == b {
		t.Fatalf("backends share cache key %q", a)
	}
	if !strings.HasPrefix(b, "piiredact:ent_cache:openai:gpt-4o-mini:") {
		t.Errorf("unexpected key %q", b)
	}
	if strings.TrimPrefix(a, "piiredact:ent_cache:spacy:") != strings.TrimPrefix(b, "piiredact:ent_cache:openai:gpt-4o-mini:") {
		t.Error("text hash must not depend on backend")
	}
}
