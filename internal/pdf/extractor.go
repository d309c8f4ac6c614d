package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

// Extractor fetches a paper's PDF and extracts its plain text. Extraction is
// best-effort: papers with broken or image-only PDFs still flow through the
// rest of the pipeline with abstract-only context.
type Extractor struct {
	downloader *Downloader
	logger     zerolog.Logger
}

// NewExtractor creates an Extractor using the given downloader.
func NewExtractor(downloader *Downloader, logger zerolog.Logger) *Extractor {
	return &Extractor{
		downloader: downloader,
		logger:     logger.With().Str("component", "pdf_extractor").Logger(),
	}
}

// ExtractText downloads the PDF at url and returns its plain text. The second
// return value reports whether usable text was produced. Failures are logged
// and reported as ok=false, never as errors, so callers can degrade to
// abstract-only summaries.
func (e *Extractor) ExtractText(ctx context.Context, url string) (string, bool) {
	if url == "" {
		return "", false
	}

	content, err := e.downloader.Download(ctx, url)
	if err != nil {
		e.logger.Warn().Err(err).Str("url", url).Msg("pdf download failed")
		return "", false
	}

	text, err := extractPlainText(content)
	if err != nil {
		e.logger.Warn().Err(err).Str("url", url).Msg("pdf text extraction failed")
		return "", false
	}
	if text == "" {
		e.logger.Debug().Str("url", url).Msg("pdf contains no extractable text")
		return "", false
	}
	return text, true
}

// extractPlainText parses PDF bytes into plain text. The parser panics on
// some malformed files, so the panic is converted to an error here.
func extractPlainText(content []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panicked: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
