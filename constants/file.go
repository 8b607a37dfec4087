package constants

import "strings"

// AllowedExtensions holds the image extensions accepted for recognition.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether the (already normalized) extension is supported.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[ext]
	return ok
}
