package summarize

import "github.com/scansnap/scansnap/constants"

// BuildSummarySchema returns a JSON-Schema (draft 2020-12 subset) as a generic
// map. We hand it to the model as an output constraint and also use it locally
// to validate.
func BuildSummarySchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"summary":       map[string]any{"type": "string", "minLength": 1},
			"title":         map[string]any{"type": "string"},
			"document_type": map[string]any{"type": "string", "enum": constants.DocumentTypes()},
		},
		"required": []string{"summary"},
	}
}
