package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// maxTextBytes caps whole-document extraction.
const maxTextBytes = 4 << 20

var pdfMagic = []byte("%PDF-")

var _ Extractor = (*PDFExtractor)(nil)

// PDFExtractor extracts text with github.com/ledongthuc/pdf.
type PDFExtractor struct {
	logger *zap.Logger
}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor(logger *zap.Logger) *PDFExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFExtractor{logger: logger}
}

// Extract returns the text of page 1 or of the whole document. Any failure,
// including a panic inside the PDF library, is reported as ErrUnreadable.
func (e *PDFExtractor) Extract(ctx context.Context, content []byte, scope Scope) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(content) == 0 {
		return "", fmt.Errorf("%w: empty content", ErrUnreadable)
	}
	if !bytes.HasPrefix(bytes.TrimLeft(content, "\x00\t\r\n "), pdfMagic) {
		return "", fmt.Errorf("%w: missing %%PDF header", ErrUnreadable)
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("pdf library panicked", zap.Any("panic", r), zap.Stringer("scope", scope))
			text, err = "", fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", ErrUnreadable, err)
	}
	if reader.NumPage() < 1 {
		return "", fmt.Errorf("%w: document has no pages", ErrUnreadable)
	}

	switch scope {
	case FirstPage:
		return e.firstPage(reader)
	case WholeDocument:
		return e.wholeDocument(reader)
	}
	return "", fmt.Errorf("unsupported extraction scope %d", scope)
}

func (e *PDFExtractor) firstPage(reader *pdf.Reader) (string, error) {
	page := reader.Page(1)
	if page.V.IsNull() {
		return "", fmt.Errorf("%w: no readable first page", ErrUnreadable)
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("%w: page 1: %v", ErrUnreadable, err)
	}
	return text, nil
}

func (e *PDFExtractor) wholeDocument(reader *pdf.Reader) (string, error) {
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: extract plain text: %v", ErrUnreadable, err)
	}
	data, err := io.ReadAll(io.LimitReader(plain, maxTextBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read plain text: %v", ErrUnreadable, err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		e.logger.Debug("pdf has no extractable text", zap.Int("pages", reader.NumPage()))
	}
	return text, nil
}
