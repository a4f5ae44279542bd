package storage

import (
	"mime"
	"path/filepath"
	"strings"
)

// ContentTypePDF is the MIME type of quote proposals.
const ContentTypePDF = "application/pdf"

// DetectContentType returns providedType when set, otherwise the MIME type
// implied by the key's extension, falling back to application/octet-stream.
func DetectContentType(providedType, key string) string {
	if providedType != "" {
		return providedType
	}

	ext := strings.ToLower(filepath.Ext(key))
	if ext == ".pdf" {
		return ContentTypePDF
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}

	return "application/octet-stream"
}

// IsPDF returns true if the content type is a PDF document.
func IsPDF(contentType string) bool {
	baseType := strings.Split(contentType, ";")[0]
	return strings.EqualFold(strings.TrimSpace(baseType), ContentTypePDF)
}
