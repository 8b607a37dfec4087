package summarize

import (
	"context"

	"github.com/scansnap/scansnap/constants"
	"github.com/scansnap/scansnap/internal/classify"
)

// Request carries everything the prompt builder needs: the reconstructed
// document text plus the classifier's outputs.
type Request struct {
	Text         string
	DocumentType constants.DocumentType
	KeyValues    *classify.Pairs
}

// Fields is the structured output expected from the model.
type Fields struct {
	Summary      string `json:"summary"`
	Title        string `json:"title,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
}

// Summarizer produces a structured summary of a scan's text. The raw model
// output is returned alongside the parsed fields for audit logging.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (Fields, []byte, error)
}
