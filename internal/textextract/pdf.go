package textextract

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	ltpdf "github.com/ledongthuc/pdf"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPDF tries the primary extraction method and, when it fails or
// yields only whitespace, the secondary one. Both operate on the
// in-memory buffer; nothing outlives the call.
func extractPDF(data []byte) (string, error) {
	text, primaryErr := extractPDFPrimary(data)
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	text, secondaryErr := extractPDFSecondary(data)
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	return "", fmt.Errorf("%w: primary: %v, secondary: %v",
		ErrUnextractable, errOrEmpty(primaryErr), errOrEmpty(secondaryErr))
}

func errOrEmpty(err error) any {
	if err != nil {
		return err
	}
	return "empty output"
}

// extractPDFPrimary uses ledongthuc/pdf per-page plain text. The
// library panics on some malformed files, so the whole pass runs under
// a recover guard and reports a plain error instead.
func extractPDFPrimary(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := ltpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil || pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.TrimSpace(pageText))
	}
	return sb.String(), nil
}

// extractPDFSecondary scans raw content stream operators via pdfcpu.
// It recovers less layout than the primary method but handles files the
// primary reader rejects.
func extractPDFSecondary(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	ctx, err := pdfapi.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return "", fmt.Errorf("pdfcpu read: %w", err)
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(r)
		if err != nil || len(raw) == 0 {
			continue
		}
		pageText := textFromContentStream(raw)
		if pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(pageText)
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("no text operators found")
	}
	return sb.String(), nil
}

// pdfStringRe matches PDF string literals in parentheses.
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// textFromContentStream walks content stream lines for the text-showing
// operators (Tj, TJ, ') and the positioning operators that imply word
// or line breaks (Td, TD, T*).
func textFromContentStream(data []byte) string {
	var sb strings.Builder

	for _, ln := range bytes.Split(data, []byte{'\n'}) {
		ln = bytes.TrimSpace(ln)
		if len(ln) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(ln, []byte("Tj")), bytes.HasSuffix(ln, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(ln, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(ln, []byte("'")) && bytes.Contains(ln, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(ln, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(ln, []byte("Td")), bytes.HasSuffix(ln, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		case bytes.Equal(ln, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return cleanPDFText(sb.String())
}

// decodePDFString handles the basic PDF escape sequences, including
// octal escapes.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// cleanPDFText collapses runs of spaces while keeping line structure.
func cleanPDFText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case r == '\n':
			sb.WriteRune('\n')
			prevSpace = true
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
