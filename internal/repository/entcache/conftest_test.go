package entcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/piiredact/internal/db"
	"github.com/kailas-cloud/piiredact/internal/domain"
)

type mockRecognizer struct {
	entities  []domain.Entity
	err       error
	calls     int
	healthErr error
}

func (m *mockRecognizer) Recognize(_ context.Context, _ string) ([]domain.Entity, error) {
	m.calls++
	return m.entities, m.err
}

func (m *mockRecognizer) HealthCheck(_ context.Context) error { return m.healthErr }

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedRecognizer(t *testing.T, inner *mockRecognizer) (*CachedRecognizer, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cr := New(inner, ms, "piiredact:", "spacy", time.Hour, nil, zap.NewNop())
	return cr, ms
}
