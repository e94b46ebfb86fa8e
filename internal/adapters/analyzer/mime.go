package analyzer

import "bytes"

// DefaultMIMEType is assumed when the image type cannot be recognized.
const DefaultMIMEType = "image/jpeg"

// DetectMIMEType guesses the image type from its magic bytes.
func DetectMIMEType(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return "image/png"
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "image/gif"
	case len(data) > 11 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	case bytes.HasPrefix(data, []byte("BM")):
		return "image/bmp"
	default:
		return DefaultMIMEType
	}
}

// IsSupportedMIMEType reports whether mimeType is an image type the analyzer accepts.
func IsSupportedMIMEType(mimeType string) bool {
	switch mimeType {
	case "image/png", "image/jpeg", "image/gif", "image/webp", "image/bmp":
		return true
	default:
		return false
	}
}
