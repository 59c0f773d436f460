package recognition

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/piiredact/internal/domain"
	"github.com/kailas-cloud/piiredact/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

type mockRecognizer struct {
	entities  []domain.Entity
	err       error
	healthErr error
}

func (m *mockRecognizer) Recognize(_ context.Context, _ string) ([]domain.Entity, error) {
	return m.entities, m.err
}

func (m *mockRecognizer) HealthCheck(_ context.Context) error { return m.healthErr }

type plainRecognizer struct{}

func (plainRecognizer) Recognize(_ context.Context, _ string) ([]domain.Entity, error) {
	return nil, nil
}

func TestInstrumentedRecognizer_Success(t *testing.T) {
	inner := &mockRecognizer{entities: []domain.Entity{
		{Start: 0, End: 4, Label: domain.LabelPerson},
		{Start: 10, End: 15, Label: domain.LabelPlace},
	}}
	r := NewInstrumentedRecognizer(inner, "test-ok", zap.NewNop())

	before := testutil.ToFloat64(metrics.RecognizerRequestsTotal.WithLabelValues("test-ok", "ok"))
	got, err := r.Recognize(context.Background(), "Mike went to Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(got))
	}
	after := testutil.ToFloat64(metrics.RecognizerRequestsTotal.WithLabelValues("test-ok", "ok"))
	if after-before != 1 {
		t.Errorf("expected ok counter +1, got %v", after-before)
	}
	if v := testutil.ToFloat64(metrics.RecognizerEntitiesTotal.WithLabelValues("test-ok", "PERSON")); v < 1 {
		t.Errorf("expected PERSON entity counted, got %v", v)
	}
}

func TestInstrumentedRecognizer_ErrorIsUnavailable(t *testing.T) {
	inner := &mockRecognizer{err: errors.New("connection refused")}
	r := NewInstrumentedRecognizer(inner, "test-err", zap.NewNop())

	_, err := r.Recognize(context.Background(), "text")
	if !errors.Is(err, domain.ErrRecognitionUnavailable) {
		t.Fatalf("expected ErrRecognitionUnavailable, got %v", err)
	}
	if v := testutil.ToFloat64(metrics.RecognizerRequestsTotal.WithLabelValues("test-err", "error")); v != 1 {
		t.Errorf("expected error counter 1, got %v", v)
	}
}

func TestInstrumentedRecognizer_KeepsSentinelOnce(t *testing.T) {
	inner := &mockRecognizer{err: domain.ErrRecognitionUnavailable}
	r := NewInstrumentedRecognizer(inner, "test-sentinel", zap.NewNop())

	_, err := r.Recognize(context.Background(), "text")
	if !errors.Is(err, domain.ErrRecognitionUnavailable) {
		t.Fatalf("expected ErrRecognitionUnavailable, got %v", err)
	}
	if got, want := err.Error(), "recognize: entity recognition unavailable"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestInstrumentedRecognizer_HealthCheck(t *testing.T) {
	r := NewInstrumentedRecognizer(&mockRecognizer{healthErr: errors.New("down")}, "p", zap.NewNop())
	if err := r.HealthCheck(context.Background()); err == nil {
		t.Error("expected health error")
	}

	r = NewInstrumentedRecognizer(plainRecognizer{}, "p", zap.NewNop())
	if err := r.HealthCheck(context.Background()); err != nil {
		t.Errorf("recognizer without health check must be healthy, got %v", err)
	}
}
