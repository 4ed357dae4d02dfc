package receipt

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

// MaxReceiptBytes is the upload size cap for proof-of-payment files (5 MiB).
const MaxReceiptBytes = 5 << 20

var (
	// ErrUnsupportedFileType means the file is not a JPEG, PNG, WEBP or PDF.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrFileTooLarge means the file exceeds MaxReceiptBytes.
	ErrFileTooLarge = errors.New("file too large")
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".pdf":  true,
	// no SVG: scriptable content
}

var allowedMime = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// Validate checks the filename extension, size and the first bytes (head)
// against the receipt allow-list. Returns the detected mime or an error.
// Validation happens before any mutation or storage write.
func Validate(filename string, size int64, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedFileType
	}
	if size > MaxReceiptBytes {
		return "", ErrFileTooLarge
	}

	detected := http.DetectContentType(head)

	// Block obvious scriptable types regardless of extension
	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") {
		return "", ErrUnsupportedFileType
	}
	if strings.HasPrefix(detected, "text/xml") || strings.HasPrefix(detected, "application/xml") || detected == "image/svg+xml" {
		return "", ErrUnsupportedFileType
	}

	// PDFs are sometimes sniffed as octet-stream depending on Go version;
	// allow by extension in that case.
	if detected == "application/octet-stream" && ext == ".pdf" {
		return "application/pdf", nil
	}
	// DetectContentType reports charset parameters for PDFs on some inputs.
	if strings.HasPrefix(detected, "application/pdf") {
		return "application/pdf", nil
	}

	if allowedMime[detected] {
		return detected, nil
	}

	return "", ErrUnsupportedFileType
}
