// Package textextract acquires plain text from uploaded travel
// documents. Two formats are supported: word-processor files (DOCX)
// and page-description files (PDF). PDF extraction runs a primary and
// a secondary method before giving up, so a failure in one parser does
// not silently hand garbled text to the pipeline.
package textextract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a supported document format.
type Format string

const (
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
)

// ErrUnsupportedFormat is returned when the file is neither a DOCX nor
// a PDF.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ErrUnextractable is returned when every extraction method failed or
// produced only whitespace. Callers never receive partial text
// silently.
var ErrUnextractable = errors.New("no text could be extracted from document")

// DetectFormat resolves the document format from the filename extension
// and, failing that, the declared content type.
func DetectFormat(filename, contentType string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx":
		return FormatDOCX, nil
	case ".pdf":
		return FormatPDF, nil
	}

	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return FormatDOCX, nil
	case "application/pdf":
		return FormatPDF, nil
	}

	return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, filename, contentType)
}

// Extract returns the plain text of a document held in memory.
func Extract(data []byte, format Format) (string, error) {
	switch format {
	case FormatDOCX:
		return extractDocx(data)
	case FormatPDF:
		return extractPDF(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
