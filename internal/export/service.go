package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/scansnap/scansnap/internal/repository"
)

// Service is a tiny façade over the scan repository that produces XLSX bytes
// for exports.
type Service struct {
	repo   repository.ScanRepository
	logger *slog.Logger
}

func NewService(repo repository.ScanRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExportScansXLSX returns an XLSX workbook (as bytes) listing all stored scans.
func (s *Service) ExportScansXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	scans, err := s.repo.ListScans(ctx)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Scans"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Scanned At",
		"Document Type",
		"Status",
		"Confidence",
		"Text",
		"Summary",
		"Source Path",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, sc := range scans {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, sc.CreatedAt.Format("2006-01-02 15:04"))
		write(2, sc.DocumentType)
		write(3, sc.Status)
		write(4, fmt.Sprintf("%.2f", sc.Confidence))
		write(5, truncate(sc.CurrentText(), 500))
		if sc.Summary != nil {
			write(6, truncate(*sc.Summary, 300))
		}
		write(7, sc.SourcePath)
		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 18) // date
	_ = f.SetColWidth(sheet, "B", "C", 16) // type, status
	_ = f.SetColWidth(sheet, "E", "F", 60) // text, summary
	_ = f.SetColWidth(sheet, "G", "G", 50) // path

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(scans),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
