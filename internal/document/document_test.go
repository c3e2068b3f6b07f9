package document

import (
	"strings"
	"testing"
)

func TestExtractTextPlainUTF8(t *testing.T) {
	t.Parallel()

	got := ExtractText([]byte("laudo da lavoura em MG"), "text/plain")
	if got != "laudo da lavoura em MG" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractTextBinaryBlob(t *testing.T) {
	t.Parallel()

	// Invalid UTF-8, not a PDF: must degrade to the fixed sentinel.
	blob := []byte{0xff, 0xfe, 0x00, 0x81, 0x92}
	got := ExtractText(blob, "application/octet-stream")
	if got != BinaryUnsupported {
		t.Fatalf("got %q, want %q", got, BinaryUnsupported)
	}
}

func TestExtractTextGarbagePDF(t *testing.T) {
	t.Parallel()

	got := ExtractText([]byte("definitely not a pdf"), "application/pdf")
	if got != PDFUnreadable {
		t.Fatalf("got %q, want %q", got, PDFUnreadable)
	}
}

func TestExtractTextEmptyPDFBytes(t *testing.T) {
	t.Parallel()

	if got := ExtractText(nil, "application/pdf"); got != PDFUnreadable {
		t.Fatalf("got %q, want %q", got, PDFUnreadable)
	}
}

func TestExtractTextMimeMatchingIsSubstring(t *testing.T) {
	t.Parallel()

	// Declared MIME types like "application/pdf; charset=binary" still route
	// through the PDF path.
	got := ExtractText([]byte("nope"), "Application/PDF; name=laudo.pdf")
	if !strings.Contains(got, "Erro") {
		t.Fatalf("got %q", got)
	}
}
