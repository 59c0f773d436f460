package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Recognizer providers.
const (
	ProviderSpacy  = "spacy"
	ProviderOpenAI = "openai"
)

// Config holds the piiredact API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Auth       AuthConfig       `yaml:"auth"`
	Limits     LimitsConfig     `yaml:"limits"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	OCR        OCRConfig        `yaml:"ocr"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Render     RenderConfig     `yaml:"render"`
	Audit      AuditConfig      `yaml:"audit"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	MaxBodyMB       int      `yaml:"max_body_mb"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis (Valkey works with the same driver)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// LimitsConfig holds request rate limits. Zero requests_per_second disables limiting.
type LimitsConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// RecognizerConfig selects and tunes the entity recognizer backend.
type RecognizerConfig struct {
	Provider          string       `yaml:"provider"` // spacy, openai
	Spacy             SpacyConfig  `yaml:"spacy"`
	OpenAI            OpenAIConfig `yaml:"openai"`
	CacheTTLSec       int          `yaml:"cache_ttl_sec"` // 0 = no cache
	StartupTimeoutSec int          `yaml:"startup_timeout_sec"`
}

// SpacyConfig points at the spaCy sidecar.
type SpacyConfig struct {
	URL        string `yaml:"url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// OpenAIConfig holds LLM recognizer settings.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// OCRConfig holds Tesseract settings.
type OCRConfig struct {
	Languages   []string `yaml:"languages"`
	PageSegMode int      `yaml:"page_seg_mode"`
	DPI         int      `yaml:"dpi"`
}

// DefaultMaskPadding is used when mask_padding is absent.
const DefaultMaskPadding = 5

// PipelineConfig holds redaction pipeline tuning.
type PipelineConfig struct {
	// MaskPadding is nil when the key is absent; an explicit 0 disables padding.
	MaskPadding  *int `yaml:"mask_padding"`
	MinTextChars int  `yaml:"min_text_chars"`
	PageWorkers  int  `yaml:"page_workers"`
}

// Padding returns the configured mask padding or DefaultMaskPadding.
func (p PipelineConfig) Padding() int {
	if p.MaskPadding == nil {
		return DefaultMaskPadding
	}
	return *p.MaskPadding
}

// RenderConfig holds the layout of re-rendered text PDFs, in points.
type RenderConfig struct {
	PageWidth  float64 `yaml:"page_width"`
	PageHeight float64 `yaml:"page_height"`
	Margin     float64 `yaml:"margin"`
	FontSize   float64 `yaml:"font_size"`
	LineHeight float64 `yaml:"line_height"`
}

// AuditConfig holds audit log settings.
type AuditConfig struct {
	RecentLimit  int `yaml:"recent_limit"`
	RetentionSec int `yaml:"retention_sec"` // 0 = keep forever
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands environment variables in data and decodes it.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyMB <= 0 {
		c.HTTP.MaxBodyMB = 20
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "piiredact:"
	}
	if c.Limits.RequestsPerSecond > 0 && c.Limits.Burst <= 0 {
		c.Limits.Burst = max(1, int(c.Limits.RequestsPerSecond))
	}
	if c.Recognizer.Provider == "" {
		c.Recognizer.Provider = ProviderSpacy
	}
	if c.Recognizer.Spacy.TimeoutSec <= 0 {
		c.Recognizer.Spacy.TimeoutSec = 10
	}
	if c.Recognizer.OpenAI.Model == "" {
		c.Recognizer.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Recognizer.StartupTimeoutSec <= 0 {
		c.Recognizer.StartupTimeoutSec = 30
	}
	if len(c.OCR.Languages) == 0 {
		c.OCR.Languages = []string{"eng"}
	}
	if c.Pipeline.MaskPadding == nil {
		padding := DefaultMaskPadding
		c.Pipeline.MaskPadding = &padding
	}
	if c.Pipeline.MinTextChars <= 0 {
		c.Pipeline.MinTextChars = 5
	}
	if c.Pipeline.PageWorkers <= 0 {
		c.Pipeline.PageWorkers = 1
	}
	if c.Audit.RecentLimit <= 0 {
		c.Audit.RecentLimit = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.Driver != "redis" {
		return fmt.Errorf("database.driver must be \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Limits.RequestsPerSecond < 0 {
		return fmt.Errorf("limits.requests_per_second must not be negative")
	}
	switch c.Recognizer.Provider {
	case ProviderSpacy:
		if c.Recognizer.Spacy.URL == "" {
			return fmt.Errorf("recognizer.spacy.url is required for provider %q", ProviderSpacy)
		}
	case ProviderOpenAI:
		if c.Recognizer.OpenAI.APIKey == "" {
			return fmt.Errorf("recognizer.openai.api_key is required for provider %q", ProviderOpenAI)
		}
	default:
		return fmt.Errorf(
			"recognizer.provider must be %q or %q, got %q",
			ProviderSpacy, ProviderOpenAI, c.Recognizer.Provider,
		)
	}
	if c.OCR.PageSegMode < 0 || c.OCR.PageSegMode > 13 {
		return fmt.Errorf("ocr.page_seg_mode must be between 0 and 13, got %d", c.OCR.PageSegMode)
	}
	if p := c.Pipeline.Padding(); p < 0 || p > 100 {
		return fmt.Errorf("pipeline.mask_padding must be between 0 and 100, got %d", p)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests run from package dirs.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
