// Package upload handles the single-file variant: one uploaded PDF in, a renamed
// downloadable copy out. Nothing is written server-side.
package upload

import (
	"context"
	"encoding/base64"
	"errors"
	"mime"

	"github.com/statement-renamer/backend/internal/extract"
	"github.com/statement-renamer/backend/internal/models"
	"github.com/statement-renamer/backend/internal/naming"
	"github.com/statement-renamer/backend/internal/parser"
	"go.uber.org/zap"
)

const pdfContentType = "application/pdf"

const (
	MsgNoFile     = "No PDF file provided"
	MsgNotPDF     = "File must be a PDF"
	MsgUnreadable = "Failed to read PDF content. Please ensure the file is a valid PDF."
	MsgNoDate     = `Could not find "Statement Period" with valid date range in the PDF. Please ensure the PDF contains a statement period in the format "MM/DD/YYYY - MM/DD/YYYY".`
	MsgSuccess    = "PDF processed successfully!"
	MsgUnexpected = "An unexpected error occurred while processing the PDF."
)

var (
	ErrNoFile     = errors.New("no file provided")
	ErrNotPDF     = errors.New("file is not a PDF")
	ErrUnexpected = errors.New("unexpected processing error")
)

// Processor runs the end-date policy over one uploaded document.
type Processor struct {
	extractor extract.Extractor
	strategy  parser.Strategy
	logger    *zap.Logger
}

// NewProcessor creates a single-file processor. strategy is normally the end-date strategy.
func NewProcessor(extractor extract.Extractor, strategy parser.Strategy, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{extractor: extractor, strategy: strategy, logger: logger}
}

// Process always returns a result suitable for the client. The error classifies
// failures: ErrNoFile, ErrNotPDF, extract.ErrUnreadable, parser.ErrIncomplete or
// ErrUnexpected.
func (p *Processor) Process(ctx context.Context, filename, contentType string, content []byte) (*models.ProcessResult, error) {
	if content == nil {
		return failure(MsgNoFile), ErrNoFile
	}
	if !IsPDFContentType(contentType) {
		return failure(MsgNotPDF), ErrNotPDF
	}

	doc := models.SourceDocument{Filename: filename, Content: content}
	log := p.logger.With(zap.String("filename", doc.Filename), zap.Int("size", len(doc.Content)))

	text, err := p.extractor.Extract(ctx, doc.Content, p.strategy.Scope())
	if err != nil {
		if errors.Is(err, extract.ErrUnreadable) {
			log.Info("upload unreadable", zap.Error(err))
			return failure(MsgUnreadable), err
		}
		log.Error("extraction failed unexpectedly", zap.Error(err))
		return failure(MsgUnexpected), errors.Join(ErrUnexpected, err)
	}

	fields, err := p.strategy.Parse(text)
	if err != nil {
		if errors.Is(err, parser.ErrIncomplete) {
			log.Info("statement period not found", zap.Error(err))
			return failure(MsgNoDate), err
		}
		log.Error("parse failed unexpectedly", zap.Error(err))
		return failure(MsgUnexpected), errors.Join(ErrUnexpected, err)
	}

	target, ok := naming.Compose(p.strategy.Name(), fields)
	if !ok {
		return failure(MsgNoDate), &parser.IncompleteError{Strategy: p.strategy.Name(), Missing: fields.Missing()}
	}

	date := ""
	if fields.Date != nil {
		date = fields.Date.Spaced()
	}
	log.Info("upload processed", zap.String("target", target))
	return &models.ProcessResult{
		Success:       true,
		Message:       MsgSuccess,
		Filename:      target,
		ExtractedDate: date,
		DownloadURL:   DataURL(doc.Content),
	}, nil
}

// IsPDFContentType reports whether contentType names application/pdf, parameters ignored.
func IsPDFContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == pdfContentType
}

// DataURL encodes content as a base64 data URL with the PDF media type.
func DataURL(content []byte) string {
	return "data:" + pdfContentType + ";base64," + base64.StdEncoding.EncodeToString(content)
}

func failure(msg string) *models.ProcessResult {
	return &models.ProcessResult{Success: false, Message: msg}
}
