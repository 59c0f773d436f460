package ner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/piiredact/internal/domain"
	"github.com/kailas-cloud/piiredact/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

func sidecar(t *testing.T, entities []nerEntity) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/entities":
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method %s", r.Method)
			}
			var req entitiesRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode request: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(entitiesResponse{Entities: entities})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestRecognize_ByteOffsets(t *testing.T) {
	// "Zoë" is 3 code points and 4 bytes.
	text := "Zoë lives in Köln"
	server := sidecar(t, []nerEntity{
		{Start: 0, End: 3, Label: "PERSON"},
		{Start: 13, End: 17, Label: "GPE"},
	})
	defer server.Close()

	got, err := New(server.URL, time.Second, zap.NewNop()).Recognize(context.Background(), text)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entities, got %+v", got)
	}
	if got[0].Text(text) != "Zoë" || got[0].Label != domain.LabelPerson {
		t.Errorf("first entity = %q %s", got[0].Text(text), got[0].Label)
	}
	if got[1].Text(text) != "Köln" || got[1].Label != domain.LabelPlace {
		t.Errorf("second entity = %q %s", got[1].Text(text), got[1].Label)
	}
}

func TestRecognize_DropsOutOfRange(t *testing.T) {
	server := sidecar(t, []nerEntity{
		{Start: 0, End: 3, Label: "PERSON"},
		{Start: 2, End: 99, Label: "GPE"},
		{Start: 2, End: 2, Label: "GPE"},
	})
	defer server.Close()

	got, err := New(server.URL, time.Second, zap.NewNop()).Recognize(context.Background(), "Ann")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 valid entity, got %+v", got)
	}
}

func TestRecognize_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second, zap.NewNop()).Recognize(context.Background(), "x")
	if !errors.Is(err, domain.ErrRecognitionUnavailable) {
		t.Errorf("expected ErrRecognitionUnavailable, got %v", err)
	}
}

func TestRecognize_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := New(url, time.Second, zap.NewNop()).Recognize(context.Background(), "x")
	if !errors.Is(err, domain.ErrRecognitionUnavailable) {
		t.Errorf("expected ErrRecognitionUnavailable, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	server := sidecar(t, nil)
	defer server.Close()

	c := New(server.URL+"/", 0, zap.NewNop())
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("unexpected health error: %v", err)
	}
}
