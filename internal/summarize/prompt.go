package summarize

import (
	"strings"

	"github.com/scansnap/scansnap/constants"
)

const (
	maxPromptTextLen = 3000
	maxKeyValuePairs = 5
	minKeyValuePairs = 2
)

// BuildSystemPrompt states the contract: JSON only, matching the schema.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a document summarizer running on-device. Return ONLY JSON that matches the provided JSON Schema.",
		"'summary' is 2-4 plain sentences covering what the document is and its key facts.",
		"Include 'title' (max ~8 words) when the document suggests one.",
		"Include 'document_type' only when confident; it must be one of: " + strings.Join(constants.DocumentTypes(), ", ") + ".",
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the document for the model. A non-default
// classification renders as a bracketed uppercase hint before the text. A
// "Key information" section is included only when at least 2 key-value pairs
// were found, capped at the first 5 in discovery order.
func BuildUserPrompt(req Request) string {
	var b strings.Builder

	if hint := req.DocumentType.Hint(); hint != "" {
		b.WriteString(hint)
		b.WriteString("\n")
	}

	if req.KeyValues != nil && req.KeyValues.Len() >= minKeyValuePairs {
		b.WriteString("Key information:\n")
		for _, p := range req.KeyValues.First(maxKeyValuePairs) {
			b.WriteString("- ")
			b.WriteString(p.Key)
			b.WriteString(": ")
			b.WriteString(p.Value)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	text := strings.TrimSpace(req.Text)
	b.WriteString("Document text (first ~3k chars):\n")
	if len(text) > maxPromptTextLen {
		b.WriteString(text[:maxPromptTextLen])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}
