package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Recognizer: RecognizerConfig{
			Spacy: SpacyConfig{URL: "http://localhost:8001"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "memcached"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_Recognizer(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RecognizerConfig)
		wantErr string
	}{
		{
			name:    "spacy without url",
			mutate:  func(r *RecognizerConfig) { r.Spacy.URL = "" },
			wantErr: "recognizer.spacy.url is required",
		},
		{
			name:    "openai without key",
			mutate:  func(r *RecognizerConfig) { r.Provider = ProviderOpenAI },
			wantErr: "recognizer.openai.api_key is required",
		},
		{
			name: "openai with key",
			mutate: func(r *RecognizerConfig) {
				r.Provider = ProviderOpenAI
				r.OpenAI.APIKey = "sk-test"
			},
		},
		{
			name:    "unknown provider",
			mutate:  func(r *RecognizerConfig) { r.Provider = "flair" },
			wantErr: `recognizer.provider must be "spacy" or "openai", got "flair"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg.Recognizer)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_PageSegMode(t *testing.T) {
	cfg := validConfig()
	cfg.OCR.PageSegMode = 14

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for page_seg_mode out of range")
	}
}

func TestValidate_MaskPadding(t *testing.T) {
	for _, p := range []int{-1, 101} {
		cfg := validConfig()
		cfg.Pipeline.MaskPadding = &p
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for mask_padding %d", p)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.HTTP.MaxBodyMB != 20 {
		t.Errorf("expected MaxBodyMB=20, got %d", cfg.HTTP.MaxBodyMB)
	}
	if cfg.Database.Driver != "redis" {
		t.Errorf("expected Driver=redis, got %q", cfg.Database.Driver)
	}
	if cfg.Storage.KeyPrefix != "piiredact:" {
		t.Errorf("expected KeyPrefix='piiredact:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Recognizer.Provider != ProviderSpacy {
		t.Errorf("expected Provider=spacy, got %q", cfg.Recognizer.Provider)
	}
	if len(cfg.OCR.Languages) != 1 || cfg.OCR.Languages[0] != "eng" {
		t.Errorf("expected Languages=[eng], got %v", cfg.OCR.Languages)
	}
	if cfg.Pipeline.Padding() != DefaultMaskPadding || cfg.Pipeline.MinTextChars != 5 || cfg.Pipeline.PageWorkers != 1 {
		t.Errorf("unexpected pipeline defaults %+v", cfg.Pipeline)
	}
	if cfg.Audit.RecentLimit != 5 {
		t.Errorf("expected RecentLimit=5, got %d", cfg.Audit.RecentLimit)
	}
	if cfg.Limits.Burst != 0 {
		t.Errorf("burst must stay unset without a rate, got %d", cfg.Limits.Burst)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	padding := 12
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 5, WriteTimeoutSec: 60, ShutdownSec: 5},
		Storage:  StorageConfig{KeyPrefix: "custom:"},
		Limits:   LimitsConfig{RequestsPerSecond: 2.5},
		Pipeline: PipelineConfig{MaskPadding: &padding, PageWorkers: 4},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 5 {
		t.Errorf("expected ReadTimeoutSec=5, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Limits.Burst != 2 {
		t.Errorf("expected Burst=2, got %d", cfg.Limits.Burst)
	}
	if cfg.Pipeline.Padding() != 12 || cfg.Pipeline.PageWorkers != 4 {
		t.Errorf("pipeline overrides lost: %+v", cfg.Pipeline)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("PIIREDACT_TEST_PORT", "9090")

	got := string(expandEnvVars([]byte("a: ${PIIREDACT_TEST_PORT}\nb: ${PIIREDACT_TEST_UNSET:-fallback}\nc: ${PIIREDACT_TEST_UNSET}")))
	want := "a: 9090\nb: fallback\nc: "
	if got != want {
		t.Errorf("expandEnvVars() = %q, want %q", got, want)
	}
}

func TestParse(t *testing.T) {
	t.Setenv("PIIREDACT_TEST_OPENAI_KEY", "sk-env")

	data := []byte(`
http:
  port: 8080
  cors_origins: ["https://app.example"]
database:
  addrs: ["localhost:6379"]
limits:
  requests_per_second: 10
recognizer:
  provider: openai
  openai:
    api_key: ${PIIREDACT_TEST_OPENAI_KEY}
ocr:
  languages: [eng, deu]
  page_seg_mode: 11
pipeline:
  page_workers: 2
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Recognizer.OpenAI.APIKey != "sk-env" {
		t.Errorf("api_key = %q", cfg.Recognizer.OpenAI.APIKey)
	}
	if cfg.Limits.Burst != 10 {
		t.Errorf("burst = %d", cfg.Limits.Burst)
	}
	if len(cfg.OCR.Languages) != 2 || cfg.OCR.PageSegMode != 11 {
		t.Errorf("ocr = %+v", cfg.OCR)
	}
	if cfg.Pipeline.PageWorkers != 2 || cfg.Pipeline.Padding() != DefaultMaskPadding {
		t.Errorf("pipeline = %+v", cfg.Pipeline)
	}
	if len(cfg.HTTP.CORSOrigins) != 1 {
		t.Errorf("cors_origins = %v", cfg.HTTP.CORSOrigins)
	}
}

func TestParse_ExplicitZeroPadding(t *testing.T) {
	data := []byte(`
http:
  port: 8080
database:
  addrs: ["localhost:6379"]
recognizer:
  spacy:
    url: http://localhost:8001
pipeline:
  mask_padding: 0
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Pipeline.Padding() != 0 {
		t.Errorf("mask_padding = %d, want 0", cfg.Pipeline.Padding())
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_Local(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.HTTP.Port == 0 {
		t.Error("expected a port in local config")
	}
}
