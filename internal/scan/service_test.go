package scan

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/scansnap/scansnap/constants"
	"github.com/scansnap/scansnap/internal/common"
	"github.com/scansnap/scansnap/internal/geometry"
	"github.com/scansnap/scansnap/internal/ocr"
	"github.com/scansnap/scansnap/internal/repository"
	"github.com/scansnap/scansnap/internal/summarize"
)

type fakeProvider struct {
	words   []ocr.Word
	err     error
	entered chan struct{} // closed when Recognize is called, if set
	block   chan struct{} // Recognize waits on this, if set
	calls   int
}

func (f *fakeProvider) Recognize(ctx context.Context, req ocr.RecognitionRequest) (ocr.RecognitionResult, error) {
	f.calls++
	if f.entered != nil {
		close(f.entered)
		f.entered = nil
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return ocr.RecognitionResult{}, f.err
	}
	return ocr.RecognitionResult{Words: f.words}, nil
}

type fakeSummarizer struct {
	fields  summarize.Fields
	err     error
	lastReq summarize.Request
}

func (f *fakeSummarizer) Summarize(ctx context.Context, req summarize.Request) (summarize.Fields, []byte, error) {
	f.lastReq = req
	if f.err != nil {
		return summarize.Fields{}, nil, f.err
	}
	return f.fields, []byte(`{"summary":"` + f.fields.Summary + `"}`), nil
}

func testImage(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.Black)
		}
	}
	path := filepath.Join(t.TempDir(), "page.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestService(t *testing.T, provider ocr.Provider, summarizer summarize.Summarizer) *Service {
	t.Helper()
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
	return NewService(provider, summarizer, repo, Options{MaxUploadWidth: 400}, logger)
}

// Provider words come back in compressed space; an 800-wide source capped at
// 400 means every coordinate doubles on the way to original-image space.
func TestRecognizePipeline(t *testing.T) {
	provider := &fakeProvider{words: []ocr.Word{
		{Text: "Total", Confidence: 0.95, Box: geometry.BoundingBox{X: 10, Y: 50, Width: 40, Height: 10}},
		{Text: "$5.00", Confidence: 0.9, Box: geometry.BoundingBox{X: 60, Y: 51, Width: 30, Height: 10}},
		{Text: "Thanks", Confidence: 0.92, Box: geometry.BoundingBox{X: 10, Y: 120, Width: 50, Height: 10}},
	}}
	svc := newTestService(t, provider, nil)

	scan, err := svc.Recognize(context.Background(), testImage(t, 800, 600))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}

	if scan.ImageWidth != 800 || scan.ImageHeight != 600 {
		t.Errorf("image size = %vx%v", scan.ImageWidth, scan.ImageHeight)
	}
	if scan.Text != "Total $5.00\nThanks" {
		t.Errorf("text = %q", scan.Text)
	}
	if scan.DocumentType != string(constants.DocTypeReceipt) {
		t.Errorf("document_type = %q", scan.DocumentType)
	}
	if scan.Status != string(constants.ScanStatusRecognized) {
		t.Errorf("status = %q", scan.Status)
	}
	if len(scan.Detections) != 3 {
		t.Fatalf("detections = %d", len(scan.Detections))
	}
	first := scan.Detections[0].Box
	if first.X != 20 || first.Y != 100 || first.Width != 80 || first.Height != 20 {
		t.Errorf("box not mapped to original space: %+v", first)
	}
	if scan.Confidence <= 0 || scan.Confidence > 1 {
		t.Errorf("confidence = %v", scan.Confidence)
	}
}

func TestRecognizeUnsupportedExtension(t *testing.T) {
	svc := newTestService(t, &fakeProvider{}, nil)
	_, err := svc.Recognize(context.Background(), "/tmp/scan.gif")
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestRecognizeProviderFailurePropagates(t *testing.T) {
	provider := &fakeProvider{err: errors.New("recognition status 500")}
	svc := newTestService(t, provider, nil)
	if _, err := svc.Recognize(context.Background(), testImage(t, 100, 100)); err == nil {
		t.Fatal("expected provider error to propagate")
	}
}

func TestRecognizeRejectsConcurrentCall(t *testing.T) {
	provider := &fakeProvider{
		entered: make(chan struct{}),
		block:   make(chan struct{}),
	}
	svc := newTestService(t, provider, nil)
	entered := provider.entered

	done := make(chan error, 1)
	path := testImage(t, 100, 100)
	go func() {
		_, err := svc.Recognize(context.Background(), path)
		done <- err
	}()

	<-entered
	if _, err := svc.Recognize(context.Background(), path); !errors.Is(err, common.ErrBusy) {
		t.Fatalf("second call err = %v, want ErrBusy", err)
	}
	close(provider.block)
	if err := <-done; err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	// The flag releases once the first call finishes.
	if _, err := svc.Recognize(context.Background(), path); err != nil {
		t.Fatalf("post-release call failed: %v", err)
	}
}

func TestCorrectDetection(t *testing.T) {
	provider := &fakeProvider{words: []ocr.Word{
		{Text: "Tota1", Confidence: 0.6, Box: geometry.BoundingBox{X: 10, Y: 50, Width: 40, Height: 10}},
		{Text: "$5.00", Confidence: 0.9, Box: geometry.BoundingBox{X: 60, Y: 51, Width: 30, Height: 10}},
	}}
	svc := newTestService(t, provider, nil)

	scan, err := svc.Recognize(context.Background(), testImage(t, 800, 600))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	var target uuid.UUID
	for _, d := range scan.Detections {
		if d.Text == "Tota1" {
			target = d.ID
		}
	}

	updated, err := svc.CorrectDetection(context.Background(), scan.ID, target, "Total")
	if err != nil {
		t.Fatalf("CorrectDetection: %v", err)
	}
	if updated.CorrectedText != "Total $5.00" {
		t.Errorf("corrected_text = %q", updated.CorrectedText)
	}
	if updated.Status != string(constants.ScanStatusCorrected) {
		t.Errorf("status = %q", updated.Status)
	}
	if updated.CurrentText() != "Total $5.00" {
		t.Errorf("CurrentText = %q", updated.CurrentText())
	}

	if _, err := svc.CorrectDetection(context.Background(), scan.ID, uuid.New(), "x"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("unknown detection err = %v, want ErrNotFound", err)
	}
}

func TestRescanRegion(t *testing.T) {
	provider := &fakeProvider{words: []ocr.Word{
		{Text: "Header", Confidence: 0.9, Box: geometry.BoundingBox{X: 10, Y: 10, Width: 60, Height: 10}},
		{Text: "garbled", Confidence: 0.3, Box: geometry.BoundingBox{X: 10, Y: 120, Width: 60, Height: 10}},
	}}
	svc := newTestService(t, provider, nil)

	scan, err := svc.Recognize(context.Background(), testImage(t, 800, 600))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}

	// Second provider call serves the region rescan. Boxes are relative to the
	// cropped region, which maps back through the region's frame.
	provider.words = []ocr.Word{
		{Text: "legible", Confidence: 0.95, Box: geometry.BoundingBox{X: 20, Y: 40, Width: 120, Height: 20}},
	}
	region := geometry.BoundingBox{X: 0, Y: 200, Width: 400, Height: 100}
	updated, err := svc.RescanRegion(context.Background(), scan.ID, region)
	if err != nil {
		t.Fatalf("RescanRegion: %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2", provider.calls)
	}

	texts := map[string]bool{}
	for _, d := range updated.Detections {
		texts[d.Text] = true
	}
	if texts["garbled"] {
		t.Error("in-region detection should be replaced")
	}
	if !texts["Header"] || !texts["legible"] {
		t.Errorf("detection set = %v", texts)
	}
	if !strings.Contains(updated.Text, "Header") || !strings.Contains(updated.Text, "legible") {
		t.Errorf("text = %q", updated.Text)
	}
	if updated.CorrectedText != "" {
		t.Errorf("corrections should reset after rescan, got %q", updated.CorrectedText)
	}
}

func TestSummarize(t *testing.T) {
	provider := &fakeProvider{words: []ocr.Word{
		{Text: "Total:", Confidence: 0.9, Box: geometry.BoundingBox{X: 10, Y: 50, Width: 40, Height: 10}},
		{Text: "$5.00", Confidence: 0.9, Box: geometry.BoundingBox{X: 60, Y: 51, Width: 30, Height: 10}},
		{Text: "Date:", Confidence: 0.9, Box: geometry.BoundingBox{X: 10, Y: 120, Width: 40, Height: 10}},
		{Text: "2026-08-12", Confidence: 0.9, Box: geometry.BoundingBox{X: 60, Y: 121, Width: 60, Height: 10}},
	}}
	summarizer := &fakeSummarizer{fields: summarize.Fields{Summary: "A receipt for $5.00.", Title: "Receipt"}}
	svc := newTestService(t, provider, summarizer)

	scan, err := svc.Recognize(context.Background(), testImage(t, 800, 600))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}

	fields, err := svc.Summarize(context.Background(), scan.ID)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if fields.Summary != "A receipt for $5.00." {
		t.Errorf("summary = %q", fields.Summary)
	}
	if summarizer.lastReq.DocumentType != constants.DocTypeReceipt {
		t.Errorf("request document_type = %q", summarizer.lastReq.DocumentType)
	}
	if summarizer.lastReq.KeyValues == nil || summarizer.lastReq.KeyValues.Len() != 2 {
		t.Errorf("request key values = %+v", summarizer.lastReq.KeyValues)
	}

	stored, err := svc.repo.GetScan(context.Background(), scan.ID)
	if err != nil {
		t.Fatalf("GetScan: %v", err)
	}
	if stored.Summary == nil || *stored.Summary != "A receipt for $5.00." {
		t.Errorf("stored summary = %v", stored.Summary)
	}
	if stored.Status != string(constants.ScanStatusSummarized) {
		t.Errorf("status = %q", stored.Status)
	}
}

func TestSummarizeNotFound(t *testing.T) {
	svc := newTestService(t, &fakeProvider{}, &fakeSummarizer{})
	if _, err := svc.Summarize(context.Background(), uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
