package summarize

import (
	"encoding/json"
	"strings"
)

var knownKeys = map[string]struct{}{
	"summary":       {},
	"title":         {},
	"document_type": {},
}

// SanitizeOptionalFields drops optional fields that would fail the stricter
// schema (null/empty optionals, unknown keys, wrong-typed values), so the
// overall document can still validate. 'summary' is required and is only
// trimmed, never dropped.
func SanitizeOptionalFields(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var dropped []string
	for k, v := range m {
		if _, ok := knownKeys[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		s, isStr := v.(string)
		if !isStr {
			if k != "summary" {
				delete(m, k)
				dropped = append(dropped, k+"(type)")
			}
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "null") {
			if k != "summary" {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			}
			continue
		}
		if k == "document_type" {
			s = strings.ToLower(s)
		}
		m[k] = s
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, dropped, nil
}

// ExtractJSONObject pulls the first top-level JSON object out of model output
// that may be wrapped in prose or code fences.
func ExtractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
