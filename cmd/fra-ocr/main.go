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

	"github.com/ironsheep/fra-claim-ocr/internal/config"
	"github.com/ironsheep/fra-claim-ocr/internal/extract"
	"github.com/ironsheep/fra-claim-ocr/internal/imaging"
	logpkg "github.com/ironsheep/fra-claim-ocr/internal/logger"
	"github.com/ironsheep/fra-claim-ocr/internal/metrics"
	"github.com/ironsheep/fra-claim-ocr/internal/ner"
	"github.com/ironsheep/fra-claim-ocr/internal/ocr"
	"github.com/ironsheep/fra-claim-ocr/internal/pipeline"
	"github.com/ironsheep/fra-claim-ocr/internal/server"
	"github.com/ironsheep/fra-claim-ocr/internal/version"
)

func main() {
	// Handle --version and --help flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("fra-ocr %s\n", version.Version)
			fmt.Printf("  Build time: %s\n", version.BuildTime)
			fmt.Printf("  Git commit: %s\n", version.GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("fra-ocr - Forest Rights Act claim document OCR service")
			fmt.Println()
			fmt.Println("Usage: fra-ocr [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  ENV=local|dev|prod        Selects config/<env>.yaml (default local)")
			fmt.Println("  FRA_OCR_CONFIG=path       Explicit config file")
			fmt.Println("  PORT=8000                 HTTP port override")
			fmt.Println("  OPENAI_API_KEY=...        Enables the entity model when ner.provider is openai")
			return
		}
	}

	env := config.GetEnv()

	var (
		cfg config.Config
		err error
	)
	if path := os.Getenv("FRA_OCR_CONFIG"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting fra-ocr",
		zap.String("version", version.Version),
		zap.String("commit", version.GitCommit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("ocr_engine", cfg.OCR.Engine),
		zap.String("ner_provider", cfg.NER.Provider),
	)

	metrics.Register()

	ctx := context.Background()

	// Optional backends are resolved once here and never re-probed.
	engine := ocr.Open(ctx, cfg.OCR.Engine, ocr.Options{
		Language:      cfg.OCR.Language,
		PageSegMode:   cfg.OCR.PageSegMode,
		TessdataDir:   cfg.OCR.TessdataDir,
		TesseractPath: cfg.OCR.TesseractPath,
	})
	if engine.Available() {
		fields := []zap.Field{zap.String("engine", engine.Name())}
		if v, ok := engine.(interface{ Version() string }); ok {
			fields = append(fields, zap.String("tesseract_version", v.Version()))
		}
		logger.Info("OCR engine ready", fields...)
	} else {
		logger.Warn("OCR engine not available, requests will get a diagnostic", zap.String("engine", engine.Name()))
	}

	model := ner.NewHandle(ner.Config{
		Provider:  cfg.NER.Provider,
		APIKey:    cfg.NER.APIKey,
		BaseURL:   cfg.NER.BaseURL,
		Model:     cfg.NER.Model,
		Timeout:   cfg.NERTimeout(),
		SkipProbe: cfg.NER.SkipProbe,
	}, logger).Recognizer(ctx)

	orch := pipeline.New(
		imaging.NewPreprocessor(imaging.DefaultPreprocessOptions(), logger),
		ocr.NewAdapter(engine, cfg.OCRTimeout(), logger),
		extract.NewExtractor(model, logger),
		pipeline.Options{
			RawTextLimit: cfg.Pipeline.RawTextLimit,
			BatchWorkers: cfg.Pipeline.BatchWorkers,
		},
		logger,
	)

	api := server.New(orch,
		server.Capabilities{OCREngine: engine.Available(), NERModel: model.Available()},
		logger,
		server.WithMaxUpload(cfg.MaxUploadBytes()),
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.Routes(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
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
