package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/piiredact/internal/config"
	"github.com/kailas-cloud/piiredact/internal/db"
	dbRedis "github.com/kailas-cloud/piiredact/internal/db/redis"
	"github.com/kailas-cloud/piiredact/internal/domain"
	logpkg "github.com/kailas-cloud/piiredact/internal/logger"
	"github.com/kailas-cloud/piiredact/internal/metrics"
	auditrepo "github.com/kailas-cloud/piiredact/internal/repository/audit"
	"github.com/kailas-cloud/piiredact/internal/repository/entcache"
	chiTransport "github.com/kailas-cloud/piiredact/internal/transport/chi"
	"github.com/kailas-cloud/piiredact/internal/transport/imagecodec"
	"github.com/kailas-cloud/piiredact/internal/transport/ner"
	openaiRec "github.com/kailas-cloud/piiredact/internal/transport/openai"
	"github.com/kailas-cloud/piiredact/internal/transport/pdf"
	"github.com/kailas-cloud/piiredact/internal/transport/tesseract"
	audituc "github.com/kailas-cloud/piiredact/internal/usecase/audit"
	documentuc "github.com/kailas-cloud/piiredact/internal/usecase/document"
	healthuc "github.com/kailas-cloud/piiredact/internal/usecase/health"
	pageuc "github.com/kailas-cloud/piiredact/internal/usecase/page"
	"github.com/kailas-cloud/piiredact/internal/usecase/recognition"
	textuc "github.com/kailas-cloud/piiredact/internal/usecase/text"
	"github.com/kailas-cloud/piiredact/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting piiredact API server",
		zap.String("version", version.String()),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("recognizer", cfg.Recognizer.Provider),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterPipelineMetrics()

	recognizer := buildRecognizer(cfg, store, logger)

	startupCtx, cancelStartup := context.WithTimeout(ctx, time.Duration(cfg.Recognizer.StartupTimeoutSec)*time.Second)
	err = recognizer.HealthCheck(startupCtx)
	cancelStartup()
	if err != nil {
		logger.Fatal("Entity recognizer unavailable", zap.Error(err))
	}
	logger.Info("Entity recognizer ready", zap.String("provider", cfg.Recognizer.Provider))

	ocr := tesseract.New(tesseract.Config{
		Languages:   cfg.OCR.Languages,
		PageSegMode: cfg.OCR.PageSegMode,
		DPI:         cfg.OCR.DPI,
	}, logger)

	pdfAdapter := pdf.New(pdf.Config{
		PageWidth:  cfg.Render.PageWidth,
		PageHeight: cfg.Render.PageHeight,
		Margin:     cfg.Render.Margin,
		FontSize:   cfg.Render.FontSize,
		LineHeight: cfg.Render.LineHeight,
	}, logger)

	textSvc := textuc.New(recognizer, logger)
	pageSvc := pageuc.New(ocr, recognizer, logger)
	docSvc := documentuc.New(textSvc, pageSvc, pdfAdapter, imagecodec.New(imagecodec.DefaultJPEGQuality), logger).
		WithPipeline(domain.PipelineConfig{
			MaskPadding:  cfg.Pipeline.Padding(),
			MinTextChars: cfg.Pipeline.MinTextChars,
			PageWorkers:  cfg.Pipeline.PageWorkers,
		})

	auditRepo := auditrepo.New(store, cfg.Storage.KeyPrefix,
		auditrepo.WithRecentLimit(cfg.Audit.RecentLimit),
		auditrepo.WithRetention(time.Duration(cfg.Audit.RetentionSec)*time.Second),
	)
	auditSvc := audituc.New(auditRepo, logger)

	healthSvc := healthuc.New(store, recognizer, ocr)

	server := chiTransport.NewServer(textSvc, pdfAdapter, docSvc, auditSvc, healthSvc, logger).
		WithMaxBodyBytes(int64(cfg.HTTP.MaxBodyMB) << 20)

	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:           cfg.Auth.APIKeys,
		CORSOrigins:       cfg.HTTP.CORSOrigins,
		RequestsPerSecond: cfg.Limits.RequestsPerSecond,
		Burst:             cfg.Limits.Burst,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildRecognizer assembles the decorator chain: backend -> cached -> instrumented.
func buildRecognizer(cfg config.Config, store db.Store, logger *zap.Logger) *recognition.InstrumentedRecognizer {
	var base domain.Recognizer
	switch cfg.Recognizer.Provider {
	case config.ProviderOpenAI:
		base = openaiRec.NewRecognizer(&openaiRec.Config{
			APIKey:   cfg.Recognizer.OpenAI.APIKey,
			BaseURL:  cfg.Recognizer.OpenAI.BaseURL,
			Model:    cfg.Recognizer.OpenAI.Model,
			Provider: config.ProviderOpenAI,
			Logger:   logger,
		})
	default:
		base = ner.New(cfg.Recognizer.Spacy.URL, time.Duration(cfg.Recognizer.Spacy.TimeoutSec)*time.Second, logger)
	}

	recognizer := base
	if cfg.Recognizer.CacheTTLSec > 0 {
		recognizer = entcache.New(base, store, cfg.Storage.KeyPrefix, cacheBackend(cfg.Recognizer),
			time.Duration(cfg.Recognizer.CacheTTLSec)*time.Second, metrics.RecognizerCacheTotal, logger)
	}

	return recognition.NewInstrumentedRecognizer(recognizer, cfg.Recognizer.Provider, logger)
}

// cacheBackend names the configured recognizer for cache namespacing.
func cacheBackend(cfg config.RecognizerConfig) string {
	if cfg.Provider == config.ProviderOpenAI {
		return cfg.Provider + ":" + cfg.OpenAI.Model
	}
	// The sidecar URL stands in for the spaCy model it serves.
	return cfg.Provider + ":" + cfg.Spacy.URL
}
