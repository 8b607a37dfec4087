package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/scansnap/scansnap/internal/layout"
)

// Scan represents a persisted recognition record for data transfer between
// layers. A scan exclusively owns its detections; detections never outlive or
// are shared across scans.
type Scan struct {
	ID            uuid.UUID          `json:"id"`
	SourcePath    string             `json:"source_path"`
	ImageWidth    float64            `json:"image_width"`
	ImageHeight   float64            `json:"image_height"`
	Text          string             `json:"text"`
	CorrectedText string             `json:"corrected_text,omitempty"`
	DocumentType  string             `json:"document_type,omitempty"`
	Summary       *string            `json:"summary,omitempty"`
	Status        string             `json:"status"`
	Confidence    float32            `json:"confidence"`
	Detections    []layout.Detection `json:"detections,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// CurrentText returns the corrected document text when present, else the raw
// recognized text.
func (s *Scan) CurrentText() string {
	if s.CorrectedText != "" {
		return s.CorrectedText
	}
	return s.Text
}
