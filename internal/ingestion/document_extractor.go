package ingestion

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"

	"github.com/fmuoria/interview-review-agent/internal/models"
)

// Media types handled by the extractor
const (
	MimeDocx      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeGoogleDoc = "application/vnd.google-apps.document"
	MimePlainText = "text/plain"
	MimePDF       = "application/pdf"
)

const (
	// BinarySampleSize is the number of bytes to sample for binary detection
	BinarySampleSize = 1000
	// BinaryThreshold is the proportion of non-printable characters that indicates binary data
	BinaryThreshold = 0.3
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DocumentExtractor turns downloaded artifact bytes into plain text
type DocumentExtractor struct{}

// NewDocumentExtractor creates a new extractor
func NewDocumentExtractor() *DocumentExtractor {
	return &DocumentExtractor{}
}

// IsRichDocument reports whether mimeType needs document conversion
func IsRichDocument(mimeType string) bool {
	return mimeType == MimeDocx || mimeType == MimeGoogleDoc
}

// Extract decodes raw according to mimeType. Word-processing documents go
// through docconv and fail with models.ErrContentDecode when the container
// is corrupt; every other type is read as UTF-8 and never fails.
func (e *DocumentExtractor) Extract(raw []byte, mimeType string) (string, error) {
	if IsRichDocument(mimeType) {
		text, _, err := docconv.ConvertDocx(bytes.NewReader(raw))
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", models.ErrContentDecode, mimeType, err)
		}
		return text, nil
	}
	return DecodeText(raw), nil
}

// DecodeText reads raw as UTF-8, dropping a leading BOM and replacing
// invalid sequences with U+FFFD.
func DecodeText(raw []byte) string {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strings.ToValidUTF8(string(raw), "�")
}

// IsBinaryData checks if content appears to be binary (PDF/ZIP markers)
func IsBinaryData(content string) bool {
	if len(content) == 0 {
		return false
	}

	if strings.HasPrefix(content, "%PDF-") {
		return true
	}

	// ZIP magic number (DOCX files)
	if strings.HasPrefix(content, "PK") {
		return true
	}

	sampleSize := min(BinarySampleSize, len(content))
	nonPrintable := 0
	for i := 0; i < sampleSize; i++ {
		ch := content[i]
		if ch < 32 && ch != '\n' && ch != '\r' && ch != '\t' {
			nonPrintable++
		}
	}

	return float64(nonPrintable)/float64(sampleSize) > BinaryThreshold
}
