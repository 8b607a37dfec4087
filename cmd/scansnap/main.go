package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/scansnap/scansnap/internal/common"
	"github.com/scansnap/scansnap/internal/ocr"
	"github.com/scansnap/scansnap/internal/repository"
	"github.com/scansnap/scansnap/internal/scan"
	"github.com/scansnap/scansnap/internal/summarize"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "scansnap <image-path>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	if err := db.Migrate(ctx, logger); err != nil {
		logger.Error("migrate", "error", err)
		os.Exit(1)
	}

	provider := newProvider(cfg, logger)
	summarizer := summarize.NewLocalProvider(summarize.Config{
		Endpoint:    cfg.Summarizer.Endpoint,
		Model:       cfg.Summarizer.Model,
		Temperature: cfg.Summarizer.Temperature,
		MaxTokens:   cfg.Summarizer.MaxTokens,
		Timeout:     cfg.Summarizer.Timeout,
	}, logger)

	repo := repository.NewScanRepository(db, logger)
	svc := scan.NewService(provider, summarizer, repo, scan.Options{
		MaxUploadWidth: cfg.OCR.MaxUploadWidth,
		LineThreshold:  cfg.OCR.LineThreshold,
	}, logger)

	start := time.Now()
	result, err := svc.Recognize(ctx, path)
	if err != nil {
		logger.Error("recognition failed",
			"path", path, "error", err, "duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	logger.Info("recognition OK",
		"scan_id", result.ID,
		"document_type", result.DocumentType,
		"detections", len(result.Detections),
		"confidence", result.Confidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func newProvider(cfg *common.Config, logger *slog.Logger) ocr.Provider {
	ocrCfg := ocr.Config{
		Endpoint: cfg.OCR.Endpoint,
		APIKey:   cfg.OCR.APIKey,
		Timeout:  cfg.OCR.Timeout,
	}
	if cfg.OCR.Provider == "ondevice" {
		return ocr.NewOnDeviceProvider(ocrCfg, logger)
	}
	return ocr.NewCloudProvider(ocrCfg, logger)
}
