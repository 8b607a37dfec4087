package constants

import "strings"

// DocumentType is the coarse classification attached to a scan.
type DocumentType string

// Stable values (store these exact strings in DB).
const (
	DocTypeReceipt      DocumentType = "receipt"
	DocTypeBusinessCard DocumentType = "business_card"
	DocTypeMenu         DocumentType = "menu_or_price_list"
	DocTypeLetter       DocumentType = "letter"
	DocTypeDocument     DocumentType = "document" // default, no hint
)

var allDocumentTypes = []DocumentType{
	DocTypeReceipt,
	DocTypeBusinessCard,
	DocTypeMenu,
	DocTypeLetter,
	DocTypeDocument,
}

func DocumentTypes() []string {
	result := make([]string, len(allDocumentTypes))
	for i, dt := range allDocumentTypes {
		result[i] = string(dt)
	}
	return result
}

// Hint renders the bracketed uppercase prompt prefix, e.g. "[RECEIPT]".
// The default type carries no hint.
func (d DocumentType) Hint() string {
	if d == DocTypeDocument || d == "" {
		return ""
	}
	return "[" + strings.ToUpper(string(d)) + "]"
}
