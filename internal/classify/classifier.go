package classify

import (
	"regexp"
	"strings"

	"github.com/scansnap/scansnap/constants"
)

var (
	reCurrency = regexp.MustCompile(`\d+[.,]\d{2}`)
	rePhone    = regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`)
)

// DetectDocumentType inspects reconstructed text for coarse document-type
// signals. Checks run in priority order; the first match wins. Any input,
// including empty, yields the default type.
func DetectDocumentType(text string) constants.DocumentType {
	lower := strings.ToLower(text)

	switch {
	case isReceipt(lower):
		return constants.DocTypeReceipt
	case isBusinessCard(lower):
		return constants.DocTypeBusinessCard
	case isMenu(lower):
		return constants.DocTypeMenu
	case isLetter(lower):
		return constants.DocTypeLetter
	default:
		return constants.DocTypeDocument
	}
}

func isReceipt(lower string) bool {
	hasTotal := strings.Contains(lower, "total") || strings.Contains(lower, "subtotal")
	hasAmount := strings.Contains(lower, "$") || reCurrency.MatchString(lower)
	return hasTotal && hasAmount
}

func isBusinessCard(lower string) bool {
	hasEmail := strings.Contains(lower, "@") || strings.Contains(lower, "email")
	hasPhone := rePhone.MatchString(lower) || strings.Contains(lower, "phone")
	return hasEmail && hasPhone
}

// isMenu wants at least 3 distinct newline-delimited lines that each look
// priced (currency-like decimal).
func isMenu(lower string) bool {
	priced := 0
	for _, line := range strings.Split(lower, "\n") {
		if reCurrency.MatchString(line) {
			priced++
			if priced >= 3 {
				return true
			}
		}
	}
	return false
}

func isLetter(lower string) bool {
	return strings.Contains(lower, "dear ") ||
		strings.Contains(lower, "sincerely") ||
		strings.Contains(lower, "regards")
}
