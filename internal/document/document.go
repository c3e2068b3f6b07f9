// Package document turns uploaded file bytes into text the assistant can read.
package document

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	// PDFUnreadable is returned when a PDF cannot be parsed at all.
	PDFUnreadable = "Erro ao ler PDF."
	// BinaryUnsupported is returned for non-PDF content that is not valid text.
	BinaryUnsupported = "[Conteúdo binário não suportado para leitura direta]"
)

// ExtractText maps raw bytes plus the declared MIME type to extracted text.
// It never fails: unreadable content degrades to a fixed sentinel string.
func ExtractText(data []byte, mimeType string) string {
	if strings.Contains(strings.ToLower(mimeType), "pdf") {
		return extractPDF(data)
	}
	if utf8.Valid(data) {
		return string(data)
	}
	return BinaryUnsupported
}

func extractPDF(data []byte) (text string) {
	// The pdf package panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text = PDFUnreadable
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return PDFUnreadable
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			sb.WriteString("\n")
			continue
		}
		// A page that yields no text is an empty string, not an error.
		content, err := page.GetPlainText(nil)
		if err != nil {
			content = ""
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return sb.String()
}
