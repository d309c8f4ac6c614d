package pdf

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMinimalPDF assembles a one-page uncompressed PDF containing the given
// ASCII text, with a correct cross-reference table.
func buildMinimalPDF(text string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	var offsets []int
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	writeObj("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>\nendobj\n")
	writeObj(fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream))
	writeObj("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>\nendobj\n")

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefPos)
	return buf.Bytes()
}

func newTestExtractor() *Extractor {
	return NewExtractor(NewDownloader(Config{AllowPrivateNetworks: true}), zerolog.Nop())
}

func TestExtractor_ExtractText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(buildMinimalPDF("Hello world"))
	}))
	defer server.Close()

	text, ok := newTestExtractor().ExtractText(context.Background(), server.URL)
	require.True(t, ok)
	assert.Contains(t, text, "Hello world")
}

func TestExtractor_ExtractText_EmptyURL(t *testing.T) {
	text, ok := newTestExtractor().ExtractText(context.Background(), "")
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestExtractor_ExtractText_DownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	text, ok := newTestExtractor().ExtractText(context.Background(), server.URL)
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestExtractor_ExtractText_MalformedPDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 this is not really a pdf"))
	}))
	defer server.Close()

	text, ok := newTestExtractor().ExtractText(context.Background(), server.URL)
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestExtractPlainText_InvalidBytes(t *testing.T) {
	_, err := extractPlainText([]byte("not a pdf at all"))
	require.Error(t, err)
}
