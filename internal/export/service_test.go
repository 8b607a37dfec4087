package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/scansnap/scansnap/constants"
	"github.com/scansnap/scansnap/internal/entity"
	"github.com/scansnap/scansnap/internal/repository"
)

func TestExportScansXLSX(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.Open(context.Background(), repository.Config{DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close(logger) })
	if err := db.Migrate(context.Background(), logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := repository.NewScanRepository(db, logger)

	summary := "A cafe receipt."
	scan := &entity.Scan{
		ID:           uuid.New(),
		SourcePath:   "/scans/cafe.jpg",
		ImageWidth:   3000,
		ImageHeight:  4000,
		Text:         "Corner Cafe\nTotal $5.00",
		DocumentType: string(constants.DocTypeReceipt),
		Status:       string(constants.ScanStatusRecognized),
		Confidence:   0.9,
	}
	if err := repo.CreateScan(context.Background(), scan); err != nil {
		t.Fatalf("CreateScan: %v", err)
	}
	if err := repo.SaveSummary(context.Background(), scan.ID, summary); err != nil {
		t.Fatalf("SaveSummary: %v", err)
	}

	svc := NewService(repo, logger)
	data, err := svc.ExportScansXLSX(context.Background())
	if err != nil {
		t.Fatalf("ExportScansXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Scans")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if rows[0][0] != "Scanned At" || rows[0][5] != "Summary" {
		t.Errorf("header row = %v", rows[0])
	}
	got := rows[1]
	if got[1] != string(constants.DocTypeReceipt) {
		t.Errorf("document type = %q", got[1])
	}
	if got[2] != string(constants.ScanStatusSummarized) {
		t.Errorf("status = %q", got[2])
	}
	if !strings.Contains(got[4], "Corner Cafe") {
		t.Errorf("text cell = %q", got[4])
	}
	if got[5] != summary {
		t.Errorf("summary cell = %q", got[5])
	}
	if got[6] != "/scans/cafe.jpg" {
		t.Errorf("source path = %q", got[6])
	}
}

func TestExportScansXLSXEmpty(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.Open(context.Background(), repository.Config{DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close(logger) })
	if err := db.Migrate(context.Background(), logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := NewService(repository.NewScanRepository(db, logger), logger)
	data, err := svc.ExportScansXLSX(context.Background())
	if err != nil {
		t.Fatalf("ExportScansXLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Scans")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("rows = %d, want header only", len(rows))
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("hello world", 6); got != "hello…" {
		t.Errorf("truncate long = %q", got)
	}
	if got := truncate("hello", 0); got != "hello" {
		t.Errorf("truncate zero = %q", got)
	}
}
