package ocr

import (
	"context"
	"time"

	"github.com/scansnap/scansnap/internal/geometry"
)

// Word is a single {text, confidence, box} triple as reported by the
// recognition collaborator, with the box in the coordinate space of the image
// the collaborator was given.
type Word struct {
	Text       string               `json:"text"`
	Confidence float32              `json:"confidence"`
	Box        geometry.BoundingBox `json:"box"`
}

// RecognitionRequest carries the encoded image handed to the collaborator.
type RecognitionRequest struct {
	Image    []byte        // JPEG bytes, already cropped and downscaled
	Size     geometry.Size // dimensions of Image
	Language string
}

// RecognitionResult is the collaborator's response plus timing.
type RecognitionResult struct {
	Words    []Word
	Duration time.Duration
}

// Provider is a recognition backend. Variants are selected by configuration
// and injected explicitly; there is no process-wide provider state.
type Provider interface {
	Recognize(ctx context.Context, req RecognitionRequest) (RecognitionResult, error)
}
