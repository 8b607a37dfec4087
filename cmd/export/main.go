package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/scansnap/scansnap/internal/common"
	"github.com/scansnap/scansnap/internal/export"
	"github.com/scansnap/scansnap/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	out := "scans.xlsx"
	if len(os.Args) >= 2 {
		out = os.Args[1]
	}

	cfg := common.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
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

	svc := export.NewService(repository.NewScanRepository(db, logger), logger)
	data, err := svc.ExportScansXLSX(ctx)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		logger.Error("write workbook", "path", out, "error", err)
		os.Exit(1)
	}
	logger.Info("export OK", "path", out, "bytes", len(data))
}
