// Package scan orchestrates one recognition round-trip: image preprocessing,
// the OCR collaborator call, geometric post-processing, line grouping,
// classification, and persistence. Collaborators are injected explicitly;
// there is no package-level provider state.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/scansnap/scansnap/constants"
	"github.com/scansnap/scansnap/internal/classify"
	"github.com/scansnap/scansnap/internal/common"
	"github.com/scansnap/scansnap/internal/entity"
	"github.com/scansnap/scansnap/internal/geometry"
	"github.com/scansnap/scansnap/internal/layout"
	"github.com/scansnap/scansnap/internal/ocr"
	"github.com/scansnap/scansnap/internal/repository"
	"github.com/scansnap/scansnap/internal/summarize"
)

// Options tune the geometric preprocessing and grouping.
type Options struct {
	MaxUploadWidth int     // compressed image width cap for the collaborator
	LineThreshold  float64 // vertical grouping threshold, original-image pixels
}

func (o *Options) fill() {
	if o.MaxUploadWidth <= 0 {
		o.MaxUploadWidth = 1000
	}
	if o.LineThreshold <= 0 {
		o.LineThreshold = layout.DefaultLineThreshold
	}
}

type Service struct {
	provider   ocr.Provider
	summarizer summarize.Summarizer
	repo       repository.ScanRepository
	opts       Options
	logger     *slog.Logger

	// at most one recognition/summarization in flight per service instance;
	// no queue, no retry, the first failure propagates
	busy atomic.Bool
}

func NewService(provider ocr.Provider, summarizer summarize.Summarizer, repo repository.ScanRepository, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	opts.fill()
	return &Service{
		provider:   provider,
		summarizer: summarizer,
		repo:       repo,
		opts:       opts,
		logger:     logger,
	}
}

func (s *Service) acquire() error {
	if !s.busy.CompareAndSwap(false, true) {
		return common.ErrBusy
	}
	return nil
}

func (s *Service) release() { s.busy.Store(false) }

// Recognize runs the full pipeline on an image file and persists the result.
func (s *Service) Recognize(ctx context.Context, path string) (*entity.Scan, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	ext := constants.NormalizeExt(filepath.Ext(path))
	if !constants.IsAllowedExt(ext) {
		return nil, common.NewAppError("UNSUPPORTED_FORMAT",
			fmt.Sprintf("unsupported extension: %q", ext), common.ErrInvalidInput)
	}

	start := time.Now()
	s.logger.Info("scan.recognize.start", "path", path)

	prepared, err := ocr.Prepare(path, nil, s.opts.MaxUploadWidth)
	if err != nil {
		return nil, common.WrapError(err, "prepare image")
	}

	dets, words, err := s.recognizeFrame(ctx, prepared)
	if err != nil {
		return nil, err
	}

	lines := layout.GroupIntoLines(dets, s.opts.LineThreshold)
	text := ocr.Normalize(layout.ReconstructText(lines))
	docType := classify.DetectDocumentType(text)

	scan := &entity.Scan{
		ID:           uuid.New(),
		SourcePath:   path,
		ImageWidth:   prepared.Frame.Original.Width,
		ImageHeight:  prepared.Frame.Original.Height,
		Text:         text,
		DocumentType: string(docType),
		Status:       string(constants.ScanStatusRecognized),
		Confidence:   ocr.BlendConfidence(words, text),
		Detections:   dets,
	}
	if err := s.repo.CreateScan(ctx, scan); err != nil {
		return nil, err
	}

	s.logger.Info("scan.recognize.ok",
		"scan_id", scan.ID,
		"detections", len(dets),
		"lines", len(lines),
		"document_type", scan.DocumentType,
		"confidence", scan.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return scan, nil
}

// recognizeFrame calls the provider and maps the returned boxes from
// compressed-image space into original-image space.
func (s *Service) recognizeFrame(ctx context.Context, prepared ocr.Prepared) ([]layout.Detection, []ocr.Word, error) {
	res, err := s.provider.Recognize(ctx, ocr.RecognitionRequest{
		Image: prepared.Image,
		Size:  prepared.Frame.Compressed,
	})
	if err != nil {
		return nil, nil, common.WrapError(err, "recognize")
	}

	dets := make([]layout.Detection, 0, len(res.Words))
	for _, w := range res.Words {
		dets = append(dets, layout.Detection{
			ID:         uuid.New(),
			Text:       w.Text,
			Box:        prepared.Frame.ToOriginal(w.Box),
			Confidence: w.Confidence,
		})
	}
	return dets, res.Words, nil
}

// RescanSelection converts an on-screen drag rectangle into original-image
// coordinates and delegates to RescanRegion.
func (s *Service) RescanSelection(ctx context.Context, scanID uuid.UUID, display geometry.Display, startX, startY, endX, endY float64) (*entity.Scan, error) {
	return s.RescanRegion(ctx, scanID, display.SelectionToImage(startX, startY, endX, endY))
}

// RescanRegion re-recognizes a sub-region of an existing scan. Detections
// intersecting the region are replaced wholesale by the new results and the
// document text is regenerated from the merged set.
func (s *Service) RescanRegion(ctx context.Context, scanID uuid.UUID, region geometry.BoundingBox) (*entity.Scan, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	start := time.Now()
	existing, err := s.repo.GetScan(ctx, scanID)
	if err != nil {
		return nil, err
	}

	prepared, err := ocr.Prepare(existing.SourcePath, &region, s.opts.MaxUploadWidth)
	if err != nil {
		return nil, common.WrapError(err, "prepare region")
	}

	fresh, words, err := s.recognizeFrame(ctx, prepared)
	if err != nil {
		return nil, err
	}

	merged := make([]layout.Detection, 0, len(existing.Detections)+len(fresh))
	for _, d := range existing.Detections {
		if !d.Box.Intersects(region) {
			merged = append(merged, d)
		}
	}
	merged = append(merged, fresh...)

	lines := layout.GroupIntoLines(merged, s.opts.LineThreshold)
	text := ocr.Normalize(layout.ReconstructText(lines))
	docType := classify.DetectDocumentType(text)
	confidence := ocr.BlendConfidence(words, text)

	err = s.repo.ReplaceRegionDetections(ctx, &repository.ReplaceRegionRequest{
		ScanID:       scanID,
		Region:       region,
		Detections:   fresh,
		Text:         text,
		DocumentType: string(docType),
		Confidence:   confidence,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("scan.rescan.ok",
		"scan_id", scanID,
		"replaced", len(existing.Detections)-len(merged)+len(fresh),
		"added", len(fresh),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return s.repo.GetScan(ctx, scanID)
}

// CorrectDetection records a user's edit of a single recognized word and
// regenerates the stored corrected document text.
func (s *Service) CorrectDetection(ctx context.Context, scanID, detectionID uuid.UUID, corrected string) (*entity.Scan, error) {
	existing, err := s.repo.GetScan(ctx, scanID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range existing.Detections {
		if existing.Detections[i].ID == detectionID {
			existing.Detections[i].CorrectedText = corrected
			found = true
			break
		}
	}
	if !found {
		return nil, common.ErrNotFound
	}

	lines := layout.GroupIntoLines(existing.Detections, s.opts.LineThreshold)
	text := ocr.Normalize(layout.ReconstructText(lines))

	if err := s.repo.UpdateDetectionCorrection(ctx, scanID, detectionID, corrected, text); err != nil {
		return nil, err
	}
	s.logger.Info("scan.correct.ok", "scan_id", scanID, "detection_id", detectionID)
	return s.repo.GetScan(ctx, scanID)
}

// Summarize builds the structured prompt from the scan's current text and
// classifier outputs, calls the on-device summarizer, and persists the result.
func (s *Service) Summarize(ctx context.Context, scanID uuid.UUID) (summarize.Fields, error) {
	if err := s.acquire(); err != nil {
		return summarize.Fields{}, err
	}
	defer s.release()

	start := time.Now()
	existing, err := s.repo.GetScan(ctx, scanID)
	if err != nil {
		return summarize.Fields{}, err
	}

	text := existing.CurrentText()
	lines := layout.GroupIntoLines(existing.Detections, s.opts.LineThreshold)

	fields, _, err := s.summarizer.Summarize(ctx, summarize.Request{
		Text:         text,
		DocumentType: constants.DocumentType(existing.DocumentType),
		KeyValues:    classify.ExtractKeyValues(layout.LineTexts(lines)),
	})
	if err != nil {
		return summarize.Fields{}, common.WrapError(err, "summarize")
	}

	if err := s.repo.SaveSummary(ctx, scanID, fields.Summary); err != nil {
		return summarize.Fields{}, err
	}

	s.logger.Info("scan.summarize.ok",
		"scan_id", scanID,
		"summary_len", len(fields.Summary),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, nil
}
