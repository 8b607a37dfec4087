package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/scansnap/scansnap/internal/common"
	"github.com/scansnap/scansnap/internal/modelfile"
	"github.com/scansnap/scansnap/internal/repository"
	"github.com/scansnap/scansnap/internal/scan"
	"github.com/scansnap/scansnap/internal/summarize"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "scansnap-summarize <scan-id-uuid>")
		os.Exit(2)
	}
	scanID, err := uuid.Parse(os.Args[1])
	if err != nil {
		logger.Error("invalid scan id (must be UUID)", "arg", os.Args[1], "error", err)
		os.Exit(2)
	}

	cfg := common.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Make sure the runtime's model file is present before asking for a summary.
	if urlPath := os.Getenv("SUMMARIZER_MODEL_URL_PATH"); urlPath != "" {
		mgr := modelfile.NewManager(cfg.Models.BaseURL, cfg.Models.CacheDir, logger)
		path, err := mgr.Ensure(ctx, modelfile.Spec{
			Name:    cfg.Summarizer.Model + ".gguf",
			URLPath: urlPath,
		})
		if err != nil {
			logger.Error("ensure model file", "error", err)
			os.Exit(1)
		}
		logger.Info("model file ready", "path", path)
	}

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

	summarizer := summarize.NewLocalProvider(summarize.Config{
		Endpoint:    cfg.Summarizer.Endpoint,
		Model:       cfg.Summarizer.Model,
		Temperature: cfg.Summarizer.Temperature,
		MaxTokens:   cfg.Summarizer.MaxTokens,
		Timeout:     cfg.Summarizer.Timeout,
	}, logger)

	repo := repository.NewScanRepository(db, logger)
	svc := scan.NewService(nil, summarizer, repo, scan.Options{
		LineThreshold: cfg.OCR.LineThreshold,
	}, logger)

	start := time.Now()
	fields, err := svc.Summarize(ctx, scanID)
	if err != nil {
		logger.Error("summarization failed",
			"scan_id", scanID, "error", err, "duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	logger.Info("summarization OK",
		"scan_id", scanID,
		"title", fields.Title,
		"summary", fields.Summary,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
