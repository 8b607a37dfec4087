package layout

import "strings"

// Text returns the line's space-joined detection texts, preferring corrected
// text per detection.
func (l Line) Text() string {
	parts := make([]string, len(l.Detections))
	for i, d := range l.Detections {
		parts[i] = d.DisplayText()
	}
	return strings.Join(parts, " ")
}

// ReconstructText joins lines with newlines into the document text. The
// result is fully derived: it can always be regenerated from the stored
// detections.
func ReconstructText(lines []Line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Text()
	}
	return strings.Join(parts, "\n")
}

// LineTexts returns each line's concatenated text, in reading order.
func LineTexts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text()
	}
	return out
}
