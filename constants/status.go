package constants

// ScanStatus is the canonical status for rows in scans.
type ScanStatus string

// Stable values (store these exact strings in DB).
const (
	ScanStatusRecognized ScanStatus = "RECOGNIZED" // OCR completed, text stored
	ScanStatusCorrected  ScanStatus = "CORRECTED"  // at least one user correction applied
	ScanStatusSummarized ScanStatus = "SUMMARIZED" // summary stored
	ScanStatusFailed     ScanStatus = "FAILED"     // terminal failure
)
