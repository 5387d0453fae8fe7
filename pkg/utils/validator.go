package utils

import (
	"bytes"
	"fmt"
	"regexp"
)

// DefaultMaxPDFSize is used when no upload limit is configured
const DefaultMaxPDFSize = 20 << 20

var (
	pdfMagic       = []byte("%PDF-")
	controlPattern = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidatePDF checks that content looks like a PDF no larger than maxSize
// bytes. maxSize <= 0 means DefaultMaxPDFSize.
func ValidatePDF(content []byte, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxPDFSize
	}
	if len(content) == 0 {
		return fmt.Errorf("empty document")
	}
	if int64(len(content)) > maxSize {
		return fmt.Errorf("document exceeds maximum size: %d > %d bytes", len(content), maxSize)
	}

	// Some producers emit a few junk bytes before the header
	head := content
	if len(head) > 1024 {
		head = head[:1024]
	}
	if !bytes.Contains(head, pdfMagic) {
		return fmt.Errorf("missing PDF header")
	}
	return nil
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlPattern.ReplaceAllString(s, "")
}
