package classify

import (
	"regexp"
	"strings"
)

// reLabeledAmount matches a trailing currency-like token preceded by a label,
// e.g. "Subtotal $12.34" or "Coffee 3.50".
var reLabeledAmount = regexp.MustCompile(`^(.*\S)\s+(\$?\d+[.,]\d{2})$`)

// Pair is one extracted key-value entry.
type Pair struct {
	Key   string
	Value string
}

// Pairs is an insertion-ordered key→value mapping. Duplicate keys overwrite
// earlier values in place (last-line-wins) without changing discovery order.
type Pairs struct {
	entries []Pair
	index   map[string]int
}

func NewPairs() *Pairs {
	return &Pairs{index: make(map[string]int)}
}

func (p *Pairs) Set(key, value string) {
	if i, ok := p.index[key]; ok {
		p.entries[i].Value = value
		return
	}
	p.index[key] = len(p.entries)
	p.entries = append(p.entries, Pair{Key: key, Value: value})
}

func (p *Pairs) Len() int { return len(p.entries) }

// First returns up to n pairs in discovery order.
func (p *Pairs) First(n int) []Pair {
	if n > len(p.entries) {
		n = len(p.entries)
	}
	return p.entries[:n]
}

// ExtractKeyValues scans reconstructed line texts for key-value shapes. Per
// line, two patterns are tried in order: "key: value" split on the first
// colon, then a trailing labeled amount. The first matching pattern wins; a
// line matching neither yields no pair.
func ExtractKeyValues(lines []string) *Pairs {
	pairs := NewPairs()
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if key, value, ok := splitColon(line); ok {
			pairs.Set(key, value)
			continue
		}
		if m := reLabeledAmount.FindStringSubmatch(line); m != nil {
			pairs.Set(strings.TrimSpace(m[1]), m[2])
		}
	}
	return pairs
}

func splitColon(line string) (key, value string, ok bool) {
	i := strings.Index(line, ":")
	if i <= 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:i])
	value = strings.TrimSpace(line[i+1:])
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}
