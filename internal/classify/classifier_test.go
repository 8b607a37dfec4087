package classify

import (
	"testing"

	"github.com/scansnap/scansnap/constants"
)

func TestDetectDocumentType(t *testing.T) {
	tests := []struct {
		name string
		text string
		want constants.DocumentType
	}{
		{
			name: "receipt with dollar sign",
			text: "Corner Cafe\nSubtotal $4.50\nTotal $5.00",
			want: constants.DocTypeReceipt,
		},
		{
			name: "receipt with decimal amount only",
			text: "TOTAL 12,99\nVielen Dank",
			want: constants.DocTypeReceipt,
		},
		{
			name: "business card",
			text: "John Smith\njohn@example.com\n555-123-4567",
			want: constants.DocTypeBusinessCard,
		},
		{
			name: "business card with phone keyword",
			text: "Jane Doe\nEmail on request\nPhone on request",
			want: constants.DocTypeBusinessCard,
		},
		{
			name: "menu with three priced lines",
			text: "Espresso 2.50\nLatte 3.80\nCroissant 2.20",
			want: constants.DocTypeMenu,
		},
		{
			name: "two priced lines is not a menu",
			text: "Espresso 2.50\nLatte 3.80\nAsk about specials",
			want: constants.DocTypeDocument,
		},
		{
			name: "letter by salutation",
			text: "Dear Ms. Harper,\nThank you for your inquiry.",
			want: constants.DocTypeLetter,
		},
		{
			name: "letter by sign-off",
			text: "Please find the report attached.\nKind Regards,\nTom",
			want: constants.DocTypeLetter,
		},
		{
			name: "plain document",
			text: "Chapter 1\nIt was a dark and stormy night.",
			want: constants.DocTypeDocument,
		},
		{
			name: "empty input",
			text: "",
			want: constants.DocTypeDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDocumentType(tt.text); got != tt.want {
				t.Errorf("DetectDocumentType(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

// Receipt signals outrank business-card signals even when both are present.
func TestDetectDocumentTypePriority(t *testing.T) {
	text := "Total: $5.00\nJohn Smith\njohn@x.com\n555-123-4567"
	if got := DetectDocumentType(text); got != constants.DocTypeReceipt {
		t.Fatalf("DetectDocumentType = %v, want %v", got, constants.DocTypeReceipt)
	}
}

func TestDocumentTypeHint(t *testing.T) {
	if got := constants.DocTypeReceipt.Hint(); got != "[RECEIPT]" {
		t.Errorf("receipt hint = %q, want [RECEIPT]", got)
	}
	if got := constants.DocTypeMenu.Hint(); got != "[MENU_OR_PRICE_LIST]" {
		t.Errorf("menu hint = %q", got)
	}
	if got := constants.DocTypeDocument.Hint(); got != "" {
		t.Errorf("default hint = %q, want empty", got)
	}
}
