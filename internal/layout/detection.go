package layout

import (
	"github.com/google/uuid"

	"github.com/scansnap/scansnap/internal/geometry"
)

// Detection is a single recognized text unit. CorrectedText is empty until a
// user explicitly edits the word; readers should prefer it over Text when set.
type Detection struct {
	ID            uuid.UUID            `json:"id"`
	Text          string               `json:"text"`
	CorrectedText string               `json:"corrected_text,omitempty"`
	Box           geometry.BoundingBox `json:"box"`
	Confidence    float32              `json:"confidence"`
}

// DisplayText returns the corrected text when present, else the raw text.
func (d Detection) DisplayText() string {
	if d.CorrectedText != "" {
		return d.CorrectedText
	}
	return d.Text
}
